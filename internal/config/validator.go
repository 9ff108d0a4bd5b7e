package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// NewValidator returns a validator whose field names come from the struct
// tag tagName (e.g. "mapstructure" for config, "yaml" for suite files) and
// whose errors translate to English through the returned translator.
// It also knows the "file" tag: an existing regular file the owner can read.
func NewValidator(tagName string) (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, fmt.Errorf("enTranslations.RegisterDefaultTranslations() > %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("file", isReadableFile); err != nil {
		return nil, nil, fmt.Errorf("validate.RegisterValidation(file) > %w", err)
	}
	if err := validate.RegisterTranslation("file", trans, func(ut ut.Translator) error {
		return ut.Add("file", "{0} must be an existing and readable file", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("file", FieldPath(fe))
		return t
	}); err != nil {
		return nil, nil, fmt.Errorf("validate.RegisterTranslation(file) > %w", err)
	}

	return validate, trans, nil
}

// FieldPath is the namespace of fe without the root struct name,
// e.g. "cases[0].method" or "reports.template".
func FieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if _, path, ok := strings.Cut(namespace, "."); ok {
		return path
	}
	return namespace
}

// TranslateErrors renders the validation errors in err, one message per
// field, each prefixed by its path when prefixPath is set.
func TranslateErrors(err error, trans ut.Translator, prefixPath bool) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		message := fe.Translate(trans)
		if prefixPath {
			message = FieldPath(fe) + ": " + message
		}
		messages = append(messages, message)
	}
	return messages
}

func isReadableFile(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o400 != 0
}
