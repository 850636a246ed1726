// Package validation holds the request validator shared by the services.
// Structs declare their rules with `validate` tags; the custom rules
// registered here are "securepassword" and "username".
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is enforced by the securepassword rule
const MinPasswordLength = 8

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	must(v.RegisterValidation("securepassword", SecurePassword))
	must(v.RegisterValidation("username", Username))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// SecurePassword requires at least MinPasswordLength characters including an
// upper case letter, a lower case letter, a digit and a special character.
func SecurePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len([]rune(password)) < MinPasswordLength {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// Username accepts ASCII letters, digits, '.', '_' and '-'. Length is left
// to min/max tags.
func Username(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// FieldError is the first failed rule of a validated struct
type FieldError struct {
	// Field is the json name of the field, StructField the Go name.
	Field       string
	StructField string
	Tag         string
	Param       string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message()
}

// Message renders the failed rule for API clients.
func (e *FieldError) Message() string {
	switch e.Tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param)
	case "gte":
		return "must be at least " + e.Param
	case "lte":
		return "must be at most " + e.Param
	case "email":
		return "is not a valid address"
	case "securepassword":
		return fmt.Sprintf("must be at least %d characters and contain upper and lower case letters, a digit and a special character", MinPasswordLength)
	case "username":
		return "may only contain letters, digits, '.', '_' or '-'"
	default:
		return "is invalid"
	}
}

// Struct validates s and returns nil or a *FieldError for the first failure.
func Struct(s any) error {
	return firstFieldError(validate.Struct(s))
}

// Var validates a single value against tag. field names it in the error.
func Var(field string, value any, tag string) error {
	err := firstFieldError(validate.Var(value, tag))
	var ferr *FieldError
	if errors.As(err, &ferr) {
		ferr.Field, ferr.StructField = field, field
	}
	return err
}

func firstFieldError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Field()
	return &FieldError{Field: field, StructField: fe.StructField(), Tag: fe.Tag(), Param: fe.Param()}
}
