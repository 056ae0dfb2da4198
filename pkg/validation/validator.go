package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxIDLength     = 1024
	MaxLabelLength  = 128
	MaxProperties   = 256
	MaxPropertyKey  = 128
	MaxPropertySize = 1 << 20

	// Regular expressions
	labelPattern   = regexp.MustCompile(`^[a-zA-Z0-9_\-.:]+$`)
	propKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-.]*$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("label", func(fl validator.FieldLevel) bool {
		return labelPattern.MatchString(fl.Field().String())
	})
}

// VertexRecord is one row of a vertex import
type VertexRecord struct {
	ID         string            `validate:"required,max=1024"`
	Label      string            `validate:"omitempty,max=128,label"`
	Properties map[string]string `validate:"omitempty,max=256,dive,max=1048576"`
}

// EdgeRecord is one row of an edge import
type EdgeRecord struct {
	ID         string            `validate:"omitempty,max=1024"`
	From       string            `validate:"required,max=1024"`
	To         string            `validate:"required,max=1024"`
	Label      string            `validate:"required,max=128,label"`
	Properties map[string]string `validate:"omitempty,max=256,dive,max=1048576"`
}

// ValidateVertexRecord validates a vertex row before it is loaded
func ValidateVertexRecord(rec *VertexRecord) error {
	if rec == nil {
		return errors.New("vertex record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}
	return validatePropertyKeys(rec.Properties)
}

// ValidateEdgeRecord validates an edge row before it is loaded
func ValidateEdgeRecord(rec *EdgeRecord) error {
	if rec == nil {
		return errors.New("edge record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}
	return validatePropertyKeys(rec.Properties)
}

func validatePropertyKeys(props map[string]string) error {
	for key := range props {
		if err := ValidatePropertyKey(key); err != nil {
			return fmt.Errorf("Properties: %w", err)
		}
	}
	return nil
}

// ValidatePropertyKey validates a property key
func ValidatePropertyKey(key string) error {
	if key == "" {
		return errors.New("property key cannot be empty")
	}
	if len(key) > MaxPropertyKey {
		return fmt.Errorf("property key '%s' exceeds maximum length of %d characters", key, MaxPropertyKey)
	}
	if !propKeyPattern.MatchString(key) {
		return fmt.Errorf("property key '%s' is invalid (must start with letter or underscore, followed by alphanumeric, underscore, dash or dot)", key)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "label":
			return fmt.Errorf("%s: '%v' contains invalid characters (only alphanumeric, underscore, dash, dot and colon allowed)", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
