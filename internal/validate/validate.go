package validate

// Package validate performs client-side schema validation of auth form
// inputs before any network call. Rejections here never reach the state
// machine; they are a form-layer concern.

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Platform password policy, stricter than a length check.
	if err := val.RegisterValidation("platform_password", validPassword); err != nil {
		panic(fmt.Sprintf("register password validation: %v", err))
	}
	return val
}

// LoginForm is the login input shape.
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// RegisterForm is the registration input shape. Role is validated at the
// domain boundary; here we only require presence.
type RegisterForm struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,platform_password"`
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"required,max=100"`
	Role        string `validate:"required,oneof=student counselor admin"`
	AcceptTerms bool   `validate:"eq=true"`
}

// ResetForm is the password reset input shape.
type ResetForm struct {
	Token    string `validate:"required"`
	Password string `validate:"required,platform_password"`
}

// Struct validates any tagged form struct.
func Struct(form any) error {
	if err := v.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatFieldErrors(verrs)
		}
		return err
	}
	return nil
}

// Password checks a password against the platform policy and returns all
// violations, not just the first.
func Password(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters long")
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("@$!%*?&", r):
			hasSpecial = true
		}
	}
	if !hasLower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one number")
	}
	if !hasSpecial {
		problems = append(problems, "Password must contain at least one special character (@$!%*?&)")
	}
	return problems
}

func validPassword(fl validator.FieldLevel) bool {
	return len(Password(fl.Field().String())) == 0
}

// formatFieldErrors flattens validator errors into one readable error.
func formatFieldErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, "email address is not valid")
		case "platform_password":
			msgs = append(msgs, strings.Join(Password(fe.Value().(string)), "; "))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "eq":
			msgs = append(msgs, "terms must be accepted")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
