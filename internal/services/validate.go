package services

import (
	"errors"
	"fmt"

	"matchchat-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// messages keyed by "<StructField>.<tag>"
var validationMessages = map[string]string{
	"Name.required":     "Name is required",
	"Email.required":    "Please provide a valid email",
	"Email.email":       "Please provide a valid email",
	"Password.required": "Password must be at least 6 characters",
	"Password.min":      "Password must be at least 6 characters",
	"Password.max":      "Password must be at most 72 bytes",
	"Age.gte":           "Age must be between 18 and 120",
	"Age.lte":           "Age must be between 18 and 120",
	"Latitude.gte":      "Latitude must be between -90 and 90",
	"Latitude.lte":      "Latitude must be between -90 and 90",
	"Longitude.gte":     "Longitude must be between -180 and 180",
	"Longitude.lte":     "Longitude must be between -180 and 180",
}

// validateStruct runs the struct tags of v and translates the first failure
// into a ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Internal("validation failed", err)
	}
	fe := fieldErrs[0]
	if msg, ok := validationMessages[fe.StructField()+"."+fe.Tag()]; ok {
		return apperr.Validation(msg)
	}
	return apperr.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
}

// validateAge checks a single age value against the allowed range
func validateAge(age int) error {
	if err := validate.Var(age, "gte=18,lte=120"); err != nil {
		return apperr.Validation(validationMessages["Age.gte"])
	}
	return nil
}
