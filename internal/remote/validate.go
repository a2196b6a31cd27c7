package remote

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports a request or response payload that failed field
// validation.
type ValidationError struct {
	What   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.What, strings.Join(e.Fields, ", "))
}

func validatePayload(what string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate %s: %w", what, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describeField(fe))
	}
	return &ValidationError{What: what, Fields: fields}
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Namespace() + " is required"
	case "gt":
		return fe.Namespace() + " must be greater than " + fe.Param()
	case "max":
		return fe.Namespace() + " must be at most " + fe.Param() + " characters"
	}
	return fe.Namespace() + " is invalid"
}
