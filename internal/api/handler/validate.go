// Package handler provides HTTP handlers for the dashboard API.
package handler

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/aqidash/aqidash/internal/api/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// validationErrors validates q and converts failures into field errors.
// The second result reports whether any field was missing entirely.
func validationErrors(q any) (fields []models.FieldError, missing bool) {
	err := validate.Struct(q)
	if err == nil {
		return nil, false
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "query", Message: err.Error()}}, false
	}

	fields = make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = true
		}
		fields = append(fields, models.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return fields, missing
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric", "number":
		return "must be a number"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
