package handler

import (
	"fmt"

	"cyoa-server/internal/models"

	"github.com/go-playground/validator/v10"
)

// RequestValidator адаптирует validator/v10 к echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate возвращает ошибку, оборачивающую models.ErrValidation.
func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%w: field %s failed on %q", models.ErrValidation, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}
