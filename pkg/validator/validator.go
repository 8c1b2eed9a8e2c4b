package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	err := v.validate.Struct(i)
	if err == nil {
		return nil, true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{
			Code:    "INVALID",
			Message: err.Error(),
		}}, false
	}

	result := make([]ValidationError, 0, len(validationErrors))
	for _, err := range validationErrors {
		result = append(result, ValidationError{
			Field:   err.Namespace(),
			Code:    strings.ToUpper(err.Tag()),
			Message: message(err),
		})
	}

	return result, false
}

// Err is Validate for callers that only need a single error value.
func (v *Validator) Err(i any) error {
	validationErrors, ok := v.Validate(i)
	if ok {
		return nil
	}

	errs := make([]error, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, e)
	}

	return errors.Join(errs...)
}

func message(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if err.Kind() == reflect.Slice || err.Kind() == reflect.Map {
			return fmt.Sprintf("%s must contain at least %s items", field, err.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, err.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
