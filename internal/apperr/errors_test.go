package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("placing order: %w", Validation("cart for shop %s is empty", "acme"))

	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindNotFound))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NotFound("shop %q not found", "acme").Wrap(cause)

	assert.Equal(t, `shop "acme" not found: connection refused`, err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestFieldValidation(t *testing.T) {
	err := FieldValidation(map[string]string{"email": "must be a valid email"})

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "must be a valid email", err.Fields["email"])
}

type signupInput struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required,max=100"`
	DOB       string `json:"dob" validate:"required,datetime=2006-01-02"`
	Password1 string `json:"password1" validate:"required,min=5"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct(signupInput{Email: "nope", DOB: "01/02/1990", Password1: "abc"})

	var e *Error
	if assert.ErrorAs(t, err, &e) {
		assert.Equal(t, KindValidation, e.Kind)
		assert.Equal(t, "enter a valid email address", e.Fields["email"])
		assert.Equal(t, "this field is required", e.Fields["name"])
		assert.Equal(t, "must match the format 2006-01-02", e.Fields["dob"])
		assert.Equal(t, "must be at least 5 characters", e.Fields["password1"])
	}

	assert.NoError(t, ValidateStruct(signupInput{Email: "a@x.io", Name: "A", DOB: "1990-01-02", Password1: "secret"}))
}

func TestFromValidatorPlainError(t *testing.T) {
	err := FromValidator(errors.New("unexpected EOF"))
	assert.True(t, Is(err, KindValidation))
}
