package accounts

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeSession
	}
	return f(tokenString)
}

// TokenValidatorChain runs validators in order until one accepts the token.
// A validator that cannot parse the token at all yields to the next one in
// the chain; any other failure (expired, wrong issuer) stops the chain.
type TokenValidatorChain struct {
	validators []TokenValidator
}

// NewMultiTokenValidator builds a chain from the given validators, skipping
// nil entries.
func NewMultiTokenValidator(validators ...TokenValidator) *TokenValidatorChain {
	chain := &TokenValidatorChain{}
	for _, v := range validators {
		if v != nil {
			chain.validators = append(chain.validators, v)
		}
	}
	return chain
}

// Validate satisfies the TokenValidator interface. When every validator
// rejects the token as unparseable the last such error is returned, so the
// caller sees the most specific diagnosis available.
func (c *TokenValidatorChain) Validate(tokenString string) (AuthClaims, error) {
	lastMalformed := error(ErrTokenMalformed)
	for _, v := range c.validators {
		claims, err := v.Validate(tokenString)
		switch {
		case err == nil:
			return claims, nil
		case IsMalformedError(err):
			lastMalformed = err
		default:
			return nil, err
		}
	}
	return nil, lastMalformed
}
