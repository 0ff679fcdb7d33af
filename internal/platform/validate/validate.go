package validate

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag = "notblank"
	passwordTag = "password"

	MinPasswordLength = 8

	msgInvalidEmail = "Please provide a valid email"
	msgWeakPassword = "Password must be at least 8 characters long and contain at least one number, one lowercase and one uppercase letter"
)

// Validator wraps a go-playground validator with English messages keyed by JSON field name.
type Validator struct {
	v     *validator.Validate
	trans ut.Translator
}

func New() *Validator {
	v := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlank)
	_ = v.RegisterValidation(passwordTag, strongPassword)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, passwordTag, "email"} {
		_ = v.RegisterTranslation(tag, trans, noop, translateCustom)
	}

	return &Validator{v: v, trans: trans}
}

// Struct validates s and returns a *Errors describing every failing field.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &Errors{Fields: make(map[string]string, len(ves))}
	for _, fe := range ves {
		msg := fe.Translate(val.trans)
		if out.First == "" {
			out.First = msg
		}
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = msg
		}
	}
	return out
}

// Errors lists failing fields; First is the message of the first failure in struct order.
type Errors struct {
	First  string
	Fields map[string]string
}

func (e *Errors) Error() string { return e.First }

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case passwordTag:
		return msgWeakPassword
	case "email":
		return msgInvalidEmail
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func strongPassword(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return IsStrongPassword(s)
}

// IsStrongPassword reports whether s has at least MinPasswordLength characters
// with an upper-case letter, a lower-case letter and a digit.
func IsStrongPassword(s string) bool {
	if len([]rune(s)) < MinPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
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
