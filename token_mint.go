package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Scopes carried by action tokens minted for account maintenance links.
const (
	ScopePasswordReset     = "accounts:password_reset"
	ScopeEmailVerification = "accounts:verify_email"
)

// ActionTokenOptions controls how MintActionToken issues short-lived tokens
// for out-of-band account actions (reset links, verification links).
type ActionTokenOptions struct {
	// TTL overrides the default token expiration. Zero uses TokenService defaults.
	TTL time.Duration
	// Issuer overrides the default issuer if provided.
	Issuer string
	// Audience overrides the default audience if provided.
	Audience []string
	// IssuedAt overrides the issuance time. Zero uses time.Now().
	IssuedAt time.Time
	// Scopes names the actions the token authorizes.
	Scopes []string
}

type tokenDefaults struct {
	issuer   string
	audience jwt.ClaimStrings
	ttl      time.Duration
}

type tokenDefaultsProvider interface {
	tokenDefaults() tokenDefaults
}

// MintActionToken mints a short-lived JWT scoped to specific account actions.
// Issuer, audience, and TTL fall back to the TokenService defaults when the
// options leave them unset.
func MintActionToken(tokenService TokenService, identity Identity, opts ActionTokenOptions) (string, time.Time, error) {
	if tokenService == nil {
		return "", time.Time{}, goerrors.New("token service is required", goerrors.CategoryBadInput)
	}
	if identity == nil {
		return "", time.Time{}, goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	opts = fillActionTokenDefaults(tokenService, opts)
	if opts.TTL < 0 {
		return "", time.Time{}, goerrors.New("token TTL must be non-negative", goerrors.CategoryBadInput)
	}

	issuedAt := opts.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	expiresAt := issuedAt.Add(opts.TTL)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    opts.Issuer,
			Subject:   identity.ID(),
			Audience:  append(jwt.ClaimStrings(nil), opts.Audience...),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:       identity.ID(),
		UserRole:  identity.Role(),
		UserEmail: identity.Email(),
		Scopes:    append([]string(nil), opts.Scopes...),
	}
	ensureTokenID(&claims.RegisteredClaims)

	token, err := tokenService.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// MintPasswordResetToken issues a token carrying only the password reset scope.
func MintPasswordResetToken(tokenService TokenService, identity Identity, ttl time.Duration) (string, time.Time, error) {
	return MintActionToken(tokenService, identity, ActionTokenOptions{
		TTL:    ttl,
		Scopes: []string{ScopePasswordReset},
	})
}

// MintEmailVerificationToken issues a token carrying only the verification scope.
func MintEmailVerificationToken(tokenService TokenService, identity Identity, ttl time.Duration) (string, time.Time, error) {
	return MintActionToken(tokenService, identity, ActionTokenOptions{
		TTL:    ttl,
		Scopes: []string{ScopeEmailVerification},
	})
}

func fillActionTokenDefaults(tokenService TokenService, opts ActionTokenOptions) ActionTokenOptions {
	provider, ok := tokenService.(tokenDefaultsProvider)
	if !ok {
		return opts
	}

	defaults := provider.tokenDefaults()
	if opts.Issuer == "" {
		opts.Issuer = defaults.issuer
	}
	if len(opts.Audience) == 0 {
		opts.Audience = defaults.audience
	}
	if opts.TTL == 0 {
		opts.TTL = defaults.ttl
	}
	return opts
}
