package service

import (
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/user-service/internal/core/domain"
)

const (
	minPasswordLength = 8
	// bcrypt refuses longer input.
	maxPasswordBytes = 72
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strong_password", StrongPassword)
	return v
}

// StrongPassword is a validator.Func for the "strong_password" tag so request
// DTOs and the service apply the same rule.
func StrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

// IsStrongPassword requires eight to 72 bytes with an upper-case letter, a
// lower-case letter and a digit.
func IsStrongPassword(pw string) bool {
	if len(pw) < minPasswordLength || len(pw) > maxPasswordBytes {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewError(domain.KindValidationFailed, "a valid email address is required")
	}
	return nil
}

func validatePassword(pw string) error {
	if err := validate.Var(pw, "required,strong_password"); err != nil {
		return domain.NewError(domain.KindValidationFailed,
			"password must be 8 to 72 characters and contain upper-case, lower-case and numeric characters")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
