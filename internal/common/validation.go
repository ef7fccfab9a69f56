package common

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	billCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]*$`)
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("billcode", func(fl validator.FieldLevel) bool {
			return billCodePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return IsStrongPassword(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidateRequest runs struct validation and returns an ErrValidation error
// whose details map each failing field to a readable message.
func ValidateRequest(req any) error {
	err := Validator().Struct(req)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return WithError(err).
			WithHint("Request validation failed").
			Mark(ErrValidation)
	}

	details := make(map[string]string, len(validateErrs))
	for _, fe := range validateErrs {
		details[fieldPath(fe)] = fieldMessage(fe)
	}
	return WithError(err).
		WithHint("Request validation failed").
		WithDetails(details).
		Mark(ErrValidation)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "billcode":
		return "may only contain letters, digits, '_', '.' and '-'"
	case "strongpassword":
		return "must contain an uppercase letter, a lowercase letter, a digit and a symbol"
	case "alphanum":
		return "may only contain letters and digits"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

// IsStrongPassword reports whether pw mixes upper, lower, digit and symbol characters.
func IsStrongPassword(pw string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
