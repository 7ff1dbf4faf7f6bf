// Package validate runs go-playground/validator rules with english messages
// and reports the first failure as a perr validation error
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
)

type engine struct {
	v     *validator.Validate
	trans ut.Translator
}

// shorter wording than the stock english set; {0} is the field, {1} the param
var messages = map[string]string{
	"min":      "{0} must be at least {1}",
	"max":      "{0} must be at most {1}",
	"required": "{0} is required",
}

var get = sync.OnceValue(func() *engine {
	loc := en.New()
	trans, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	for tag, text := range messages {
		tag, text := tag, text
		_ = v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			},
		)
	}
	return &engine{v: v, trans: trans}
})

// jsonName reports fields by their json name so messages match the config
// and payload keys users see
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Struct checks the validate tags on s. A non-struct is a programming error
// and comes back as ErrorCodeInvalidArgument
func Struct(s any) error {
	err := get().v.Struct(s)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Named("validate").Error().Err(inv).Msg("validator misuse")
		return perr.Wrap(inv, perr.ErrorCodeInvalidArgument, "validation error")
	}
	field, msg := first(err)
	return perr.Validationf(field, "%s", msg)
}

// Var checks one value against tag; field names it in the error
func Var(field string, value any, tag string) error {
	err := get().v.Var(value, tag)
	if err == nil {
		return nil
	}
	_, msg := first(err)
	return perr.Validationf(field, "%s%s", field, msg)
}

// first returns the field and translated message of the first failure
func first(err error) (field, msg string) {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(get().trans)
	}
	return "", err.Error()
}
