package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Draft runs the struct-tag checks on a form draft. It reports the first
// failing field only, which is what the forms display.
func Draft(draft any) error {
	err := structValidator.Struct(draft)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("invalid form: %w", err)
	}

	fe := fieldErrs[0]
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Errorf("%s is required", name)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "file":
		return fmt.Errorf("%s must be an existing file", name)
	default:
		return fmt.Errorf("%s is invalid", name)
	}
}

// humanize turns "TransactionHash" into "transaction hash"
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
