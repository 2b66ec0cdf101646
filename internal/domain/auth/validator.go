package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidatorWrapper struct {
	validate *validator.Validate
}

func NewValidator(v *validator.Validate) Validator {
	return &ValidatorWrapper{
		validate: v,
	}
}

// Validate flattens field errors into one message such as "email: email; password: required".
func (v *ValidatorWrapper) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", lowerFirst(fe.Field()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
