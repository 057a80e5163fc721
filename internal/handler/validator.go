package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to Echo's Validator interface.
// Bind structs opt in with `validate` tags; handlers call c.Validate
// after binding.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the request validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator. Failures surface as 400 with the
// validator's message so the form can show what is missing.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
