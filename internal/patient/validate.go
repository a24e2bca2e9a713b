package patient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/medisync/medisync/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a record's fields before it reaches the cache or store.
// Returns an apperr validation error carrying field-level messages keyed by
// the JSON field name.
func Validate(rec Record) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.CodeValidationFailed, "validate record", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = fieldMessage(fe)
	}

	return &apperr.Error{
		Code:    apperr.CodeValidationFailed,
		Message: "record has invalid fields",
		Fields:  fields,
	}
}

// fieldName maps a validator field reference to its JSON name,
// e.g. "Record.FirstName" -> "firstName".
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// fieldMessage renders a user-facing message for one failed field.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is not a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
