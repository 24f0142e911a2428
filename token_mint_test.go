package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintActionToken(t *testing.T) {
	service := accounts.NewTokenService([]byte("mint-signing-key"), 24, "mint-issuer", []string{"mint:aud"}, nil)

	identity := TestIdentity{
		IDVal:    "user-123",
		EmailVal: "mint@example.com",
		RoleVal:  accounts.RoleAuthenticated,
	}

	t.Run("falls back to service defaults", func(t *testing.T) {
		issuedAt := time.Now()

		token, expiresAt, err := accounts.MintActionToken(service, identity, accounts.ActionTokenOptions{
			IssuedAt: issuedAt,
			Scopes:   []string{accounts.ScopePasswordReset},
		})
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.WithinDuration(t, issuedAt.Add(24*time.Hour), expiresAt, time.Second)

		claimsAny, err := service.Validate(token)
		require.NoError(t, err)

		claims, ok := claimsAny.(*accounts.JWTClaims)
		require.True(t, ok)
		assert.Equal(t, "mint-issuer", claims.RegisteredClaims.Issuer)
		assert.Contains(t, claims.RegisteredClaims.Audience, "mint:aud")
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, []string{accounts.ScopePasswordReset}, claims.Scopes)
		assert.NotEmpty(t, claims.RegisteredClaims.ID)
	})

	t.Run("option overrides win over defaults", func(t *testing.T) {
		issuedAt := time.Now()

		token, expiresAt, err := accounts.MintActionToken(service, identity, accounts.ActionTokenOptions{
			TTL:      30 * time.Minute,
			Issuer:   "mint-issuer",
			IssuedAt: issuedAt,
			Scopes:   []string{accounts.ScopeEmailVerification},
		})
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.WithinDuration(t, issuedAt.Add(30*time.Minute), expiresAt, time.Second)
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		_, _, err := accounts.MintActionToken(service, identity, accounts.ActionTokenOptions{
			TTL: -time.Minute,
		})
		require.Error(t, err)
	})

	t.Run("requires a token service", func(t *testing.T) {
		_, _, err := accounts.MintActionToken(nil, identity, accounts.ActionTokenOptions{})
		require.Error(t, err)
	})

	t.Run("requires an identity", func(t *testing.T) {
		_, _, err := accounts.MintActionToken(service, nil, accounts.ActionTokenOptions{})
		require.Error(t, err)
	})
}

func TestMintScopedHelpers(t *testing.T) {
	service := accounts.NewTokenService([]byte("mint-signing-key"), 1, "mint-issuer", []string{"mint:aud"}, nil)

	identity := TestIdentity{IDVal: "user-456", RoleVal: accounts.RoleAuthenticated}

	token, _, err := accounts.MintPasswordResetToken(service, identity, 15*time.Minute)
	require.NoError(t, err)

	claimsAny, err := service.Validate(token)
	require.NoError(t, err)
	claims := claimsAny.(*accounts.JWTClaims)
	assert.Equal(t, []string{accounts.ScopePasswordReset}, claims.Scopes)

	token, _, err = accounts.MintEmailVerificationToken(service, identity, 15*time.Minute)
	require.NoError(t, err)

	claimsAny, err = service.Validate(token)
	require.NoError(t, err)
	claims = claimsAny.(*accounts.JWTClaims)
	assert.Equal(t, []string{accounts.ScopeEmailVerification}, claims.Scopes)
}
