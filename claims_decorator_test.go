package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainClaimsDecorators(t *testing.T) {
	ctx := context.Background()

	appendScope := func(scope string) accounts.ClaimsDecorator {
		return accounts.ClaimsDecoratorFunc(func(ctx context.Context, identity accounts.Identity, claims *accounts.JWTClaims) error {
			claims.Scopes = append(claims.Scopes, scope)
			return nil
		})
	}

	t.Run("runs decorators in order", func(t *testing.T) {
		chain := accounts.ChainClaimsDecorators(appendScope("first"), nil, appendScope("second"))

		claims := &accounts.JWTClaims{}
		require.NoError(t, chain.Decorate(ctx, TestIdentity{IDVal: "u1"}, claims))
		assert.Equal(t, []string{"first", "second"}, claims.Scopes)
	})

	t.Run("first error stops the chain", func(t *testing.T) {
		boom := goerrors.New("decorator failed", goerrors.CategoryOperation)
		failing := accounts.ClaimsDecoratorFunc(func(context.Context, accounts.Identity, *accounts.JWTClaims) error {
			return boom
		})

		chain := accounts.ChainClaimsDecorators(failing, appendScope("never"))

		claims := &accounts.JWTClaims{}
		err := chain.Decorate(ctx, TestIdentity{IDVal: "u1"}, claims)
		require.ErrorIs(t, err, boom)
		assert.Empty(t, claims.Scopes)
	})

	t.Run("empty chain is a no-op", func(t *testing.T) {
		claims := &accounts.JWTClaims{}
		require.NoError(t, accounts.ChainClaimsDecorators().Decorate(ctx, TestIdentity{IDVal: "u1"}, claims))
		assert.Empty(t, claims.Scopes)
	})
}
