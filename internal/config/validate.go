package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks option structs tagged with `validate`.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator reporting flag-style field names.
func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

// Validate returns one error listing every invalid field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", flagName(e.Field()), friendlyMessage(e)))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
}

// flagName turns a Go field name into its kebab-case flag.
func flagName(field string) string {
	var b strings.Builder
	b.WriteString("--")
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' && !(field[i-1] >= 'A' && field[i-1] <= 'Z') {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be >= " + e.Param()
	case "lte":
		return "must be <= " + e.Param()
	case "gt":
		return "must be > " + e.Param()
	case "lt":
		return "must be < " + e.Param()
	case "hostname_port":
		return "must be host:port"
	default:
		return "is invalid"
	}
}
