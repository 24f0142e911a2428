package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claimGuard freezes the identity-bearing claims before the decorator runs so
// any mutation of them can be detected afterwards. Decorators own the
// extension fields (scopes, metadata) only.
type claimGuard struct {
	identity  map[string]string
	issuedAt  *time.Time
	expiresAt *time.Time
}

// audience lists join on a separator no sane audience string contains, which
// keeps the comparison order-sensitive without copying the slice.
const audienceJoinSep = "\x1f"

var guardedClaimOrder = []string{"sub", "iss", "uid", "aud"}

func newClaimGuard(claims *JWTClaims) claimGuard {
	guard := claimGuard{
		identity:  guardedClaimValues(claims),
		issuedAt:  numericDateValue(claims.RegisteredClaims.IssuedAt),
		expiresAt: numericDateValue(claims.RegisteredClaims.ExpiresAt),
	}
	return guard
}

func (g claimGuard) verify(claims *JWTClaims) error {
	current := guardedClaimValues(claims)
	for _, field := range guardedClaimOrder {
		if current[field] != g.identity[field] {
			return immutableClaimViolation(field)
		}
	}

	if !timestampsMatch(g.issuedAt, claims.RegisteredClaims.IssuedAt) {
		return immutableClaimViolation("iat")
	}

	if !timestampsMatch(g.expiresAt, claims.RegisteredClaims.ExpiresAt) {
		return immutableClaimViolation("exp")
	}

	return nil
}

func guardedClaimValues(claims *JWTClaims) map[string]string {
	return map[string]string{
		"sub": claims.RegisteredClaims.Subject,
		"iss": claims.RegisteredClaims.Issuer,
		"uid": claims.UID,
		"aud": strings.Join(claims.RegisteredClaims.Audience, audienceJoinSep),
	}
}

func numericDateValue(date *jwt.NumericDate) *time.Time {
	if date == nil {
		return nil
	}
	value := date.Time
	return &value
}

func timestampsMatch(frozen *time.Time, current *jwt.NumericDate) bool {
	if frozen == nil {
		return current == nil
	}
	return current != nil && current.Time.Equal(*frozen)
}

func immutableClaimViolation(field string) error {
	clone := ErrImmutableClaimMutation.Clone()
	if clone == nil {
		return ErrImmutableClaimMutation
	}
	clone.Message = fmt.Sprintf("immutable claim mutated: %s", field)
	clone.Source = ErrImmutableClaimMutation
	return clone.WithMetadata(map[string]any{"claim": field})
}
