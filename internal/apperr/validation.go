package apperr

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = NewValidator()

// NewValidator returns a validator that reports fields by their json name
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterJSONNames(v)
	return v
}

// RegisterJSONNames makes v report fields by their json tag
func RegisterJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct runs the validate tags of s
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return FromValidator(err)
	}
	return nil
}

// FromValidator converts validator failures into a field level validation error
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation("invalid request: %v", err).Wrap(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return FieldValidation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must match the format " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "eqfield":
		return "must match " + fe.Param()
	default:
		return "invalid value"
	}
}
