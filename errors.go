package accounts

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrNoEmptyString is returned when a required string argument is empty
var ErrNoEmptyString = errors.New("string should not be empty")

// ErrMismatchedHashAndPassword is the generic credential failure, returned
// for unknown identifiers too so callers can't probe for accounts
var ErrMismatchedHashAndPassword = errors.New("credentials do not match")

// ErrUnableToDecodeSession unable to decode JWT from session token
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

const (
	// TextCodeEmailTaken flags duplicate email registrations
	TextCodeEmailTaken = "EMAIL_TAKEN"
	// TextCodeNicknameTaken flags duplicate nickname registrations
	TextCodeNicknameTaken = "NICKNAME_TAKEN"
	// TextCodeAccountLocked flags authentication against a locked account
	TextCodeAccountLocked = "ACCOUNT_LOCKED"
	// TextCodeEmailNotVerified flags authentication before email verification
	TextCodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	// TextCodeTokenExpired flags expired reset or session tokens
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed flags tokens we could not parse
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeVerificationMismatch flags a verification token that does not match
	TextCodeVerificationMismatch = "VERIFICATION_TOKEN_MISMATCH"
)

// ErrEmailTaken is returned when the email is already registered
var ErrEmailTaken = goerrors.New("user with given email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrNicknameTaken is returned when the nickname is already registered
var ErrNicknameTaken = goerrors.New("user with given nickname already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeNicknameTaken).
	WithCode(goerrors.CodeConflict)

// ErrAccountLocked is returned when a locked account tries to authenticate
var ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(goerrors.CodeForbidden)

// ErrEmailNotVerified is returned when an unverified account tries to authenticate
var ErrEmailNotVerified = goerrors.New("account email is not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned for expired JWTs
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrImmutableClaimMutation is returned when a claims decorator touches a
// registered or identity claim
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode("IMMUTABLE_CLAIM_MUTATION")

// standingAuthError maps an account standing to the error that should block
// authentication, nil when the account may log in
func standingAuthError(standing AccountStanding) error {
	switch standing {
	case StandingLocked:
		return ErrAccountLocked
	default:
		return nil
	}
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
