package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"ride-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Names: letters, spaces, hyphens, apostrophes only.
var nameRe = regexp.MustCompile(`^[\p{L}\s\-']+$`)

// Usernames and slugs share one alphabet.
var handleRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"), f.Name)
		})
		_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return IsValidPassword(fl.Field().String())
		})
		_ = validate.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
			return IsValidName(strings.TrimSpace(fl.Field().String()))
		})
		_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return IsValidHandle(fl.Field().String())
		})
	})
	return validate
}

func jsonName(tag, fallback string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" || name == "-" {
		return fallback
	}
	return name
}

// Struct validates v against its `validate` tags. The first failing field is
// reported as an ErrInvalidInput.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, describe(verrs[0]))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email format"
	case "password":
		return "Password must have at least 8 characters including a letter, a number and a special character"
	case "personname":
		return fmt.Sprintf("%s contains invalid characters", fe.Field())
	case "handle":
		return fmt.Sprintf("%s may only contain letters, numbers, hyphens and underscores", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// IsValidPassword requires at least 8 characters with a letter, a digit and a
// punctuation or symbol character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func IsValidName(name string) bool {
	return name != "" && nameRe.MatchString(name)
}

func IsValidHandle(s string) bool {
	return handleRe.MatchString(s)
}
