package handler

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct validates a request body against its validate tags and
// returns one message per failed field, keyed by the lowercased field name.
// A nil map means the body is valid.
func ValidateStruct(body any) map[string][]string {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string][]string{"body": {"invalid request body"}}
	}

	out := make(map[string][]string, len(validationErrors))

	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		out[field] = append(out[field], fieldMessage(field, fieldErr))
	}

	return out
}

func fieldMessage(field string, fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("The %s field may not be greater than %s characters.", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s.", field, fieldErr.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
