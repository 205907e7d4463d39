package validator

import (
	"errors"
	"regexp"
	"sync"
	"unicode"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/siakad-backend/internal/model"
)

// Entity payloads carry `validate` tags. Gin only decodes them, so every rule of a
// submission is evaluated together by Check instead of failing on the first bind error.
const tagName = "validate"

const (
	minUsernameLen = 4
	minPhoneDigits = 7
)

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type ruleEngine struct {
	v *govalidator.Validate
	t ut.Translator
}

var (
	engineOnce sync.Once
	engine     *ruleEngine
)

func rules() *ruleEngine {
	engineOnce.Do(func() {
		v := govalidator.New(govalidator.WithRequiredStructEnabled())
		v.SetTagName(tagName)
		engine = &ruleEngine{v: v, t: configure(v)}
	})
	return engine
}

// Errors maps a field name to a human-readable message. It is the single channel through
// which expected validation failures are reported.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Any reports whether at least one field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Merge copies messages from other that are not yet present in e.
func (e Errors) Merge(other Errors) {
	for field, msg := range other {
		e.Add(field, msg)
	}
}

// Check runs the struct rules of v and returns every failing field. The result is never nil.
func Check(v interface{}) Errors {
	eng := rules()
	out := Errors{}

	err := eng.v.Struct(v)
	if err == nil {
		return out
	}

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out.Add(fe.Field(), fe.Translate(eng.t))
		}
		return out
	}

	out.Add("detail", err.Error())
	return out
}

// IsEmailShape reports whether s looks like local@domain.tld.
func IsEmailShape(s string) bool {
	return emailShape.MatchString(s)
}

// PhoneDigits counts the decimal digits in s.
func PhoneDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func registerCustomRules(v *govalidator.Validate, t ut.Translator) {
	custom := []struct {
		tag string
		fn  govalidator.Func
		msg string
	}{
		{
			tag: "username",
			fn: func(fl govalidator.FieldLevel) bool {
				return utf8.RuneCountInString(fl.Field().String()) >= minUsernameLen
			},
			msg: "{0} must be at least 4 characters",
		},
		{
			tag: "email_shape",
			fn: func(fl govalidator.FieldLevel) bool {
				return IsEmailShape(fl.Field().String())
			},
			msg: "{0} must be a valid email address",
		},
		{
			tag: "phone_digits",
			fn: func(fl govalidator.FieldLevel) bool {
				return PhoneDigits(fl.Field().String()) >= minPhoneDigits
			},
			msg: "{0} must contain at least 7 digits",
		},
		{
			tag: "enrollment_status",
			fn: func(fl govalidator.FieldLevel) bool {
				return model.EnrollmentStatus(fl.Field().String()).Valid()
			},
			msg: "{0} must be one of enrolled, completed, dropped, withdrawn",
		},
	}

	for _, c := range custom {
		_ = v.RegisterValidation(c.tag, c.fn)
		msg := c.msg
		_ = v.RegisterTranslation(c.tag, t,
			func(ut ut.Translator) error {
				return ut.Add(c.tag, msg, true)
			},
			func(ut ut.Translator, fe govalidator.FieldError) string {
				s, err := ut.T(fe.Tag(), fe.Field())
				if err != nil {
					return fe.Error()
				}
				return s
			},
		)
	}
}
