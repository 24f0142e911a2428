package accounts

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CreateUserPayload carries the fields needed to create or register an account
type CreateUserPayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Nickname  string `form:"nickname" json:"nickname"`
	Email     string `form:"email" json:"email"`
	Phone     string `form:"phone_number" json:"phone_number"`
	Password  string `form:"password" json:"password"`
	Role      string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(
			&r.Nickname,
			validation.Required,
			validation.Length(3, 50),
			validation.Match(nicknamePattern),
		),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100), validation.By(validatePasswordStrength)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Role, validation.By(validateOptionalRole)),
	)
}

// UpdateUserPayload carries a partial update, empty fields are left untouched
type UpdateUserPayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Nickname  string `form:"nickname" json:"nickname"`
	Email     string `form:"email" json:"email"`
	Phone     string `form:"phone_number" json:"phone_number"`
	Role      string `form:"role" json:"role"`
}

// Validate will run validation rules on the fields that are set
func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
		validation.Field(
			&r.Nickname,
			validation.Length(3, 50),
			validation.Match(nicknamePattern),
		),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Role, validation.By(validateOptionalRole)),
	)
}

// IsEmpty reports whether the payload carries no changes
func (r UpdateUserPayload) IsEmpty() bool {
	return r == UpdateUserPayload{}
}

// validatePasswordStrength requires at least one letter and one digit, length
// rules are handled by the Length rule on the field
func validatePasswordStrength(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	var hasLetter, hasDigit bool
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}

	if !hasLetter || !hasDigit {
		return errors.New("must contain at least one letter and one digit")
	}

	return nil
}

// ValidatePassword runs the password rules against a standalone value
func ValidatePassword(password string) error {
	return validation.Validate(
		password,
		validation.Required,
		validation.Length(8, 100),
		validation.By(validatePasswordStrength),
	)
}

// ValidatePhoneNumber parses the value as an international phone number,
// empty values are accepted since phone is optional
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

func validateOptionalRole(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	if !IsValidRole(s) {
		return errors.New("must be a valid role")
	}

	return nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field/message map
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
