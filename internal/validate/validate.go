// ABOUTME: Struct validation for form input using go-playground/validator
// ABOUTME: Maps failures to per-field messages keyed by JSON field name

package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern is deliberately loose: something@something.something
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors line up with form field keys
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return IsDigits(fl.Field().String())
	})

	return v
}

// IsEmail reports whether s looks like an email address
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsDigits reports whether s is non-empty and only ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Messages overrides the default text for "field.tag" keys
type Messages map[string]string

// defaultMessages covers the tags used across the console's forms.
var defaultMessages = map[string]string{
	"required":   "%s is required",
	"looseemail": "Please enter a valid email address",
	"digits":     "%s must contain only digits",
	"len":        "%s must be exactly %s characters",
	"min":        "%s must be at least %s characters",
	"eqfield":    "%s does not match",
}

// Struct validates s and returns field name -> message.
// An empty map means s is valid.
func Struct(s any, overrides Messages) map[string]string {
	fieldErrors := make(map[string]string)

	err := validate.Struct(s)
	if err == nil {
		return fieldErrors
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fieldErrors["_"] = err.Error()
		return fieldErrors
	}

	for _, fe := range validationErrs {
		field := fe.Field()
		// First failure per field wins
		if _, exists := fieldErrors[field]; exists {
			continue
		}
		fieldErrors[field] = message(field, fe.Tag(), fe.Param(), overrides)
	}
	return fieldErrors
}

// Field checks one value against a tag list such as "required,looseemail"
// and returns the message for the first failure, or "" when valid.
func Field(name, value, tag string, overrides Messages) string {
	err := validate.Var(value, tag)
	if err == nil {
		return ""
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err.Error()
	}
	fe := validationErrs[0]
	return message(name, fe.Tag(), fe.Param(), overrides)
}

func message(field, tag, param string, overrides Messages) string {
	if msg, ok := overrides[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := overrides[field]; ok {
		return msg
	}

	label := humanize(field)
	tmpl, ok := defaultMessages[tag]
	if !ok {
		return fmt.Sprintf("%s is invalid", label)
	}

	switch strings.Count(tmpl, "%s") {
	case 0:
		return tmpl
	case 1:
		return fmt.Sprintf(tmpl, label)
	default:
		return fmt.Sprintf(tmpl, label, param)
	}
}

// humanize turns a camelCase json name into a sentence-case label
func humanize(field string) string {
	var sb strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteRune(' ')
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		if i == 0 && r >= 'a' && r <= 'z' {
			sb.WriteRune(r - ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
