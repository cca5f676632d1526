package parser

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"deploykit/pkg/playbook"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Parse reads and validates a playbook YAML file, returning the parsed Playbook struct or an error.
func Parse(filePath string) (*playbook.Playbook, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("playbook file not found: %s", filePath)
	}

	// Configure Viper
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("yaml")

	// Read the file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("playbook file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to read playbook file: %w", err)
	}

	// Unmarshal into Playbook struct
	var pb playbook.Playbook
	if err := v.Unmarshal(&pb); err != nil {
		return nil, fmt.Errorf("failed to parse playbook file - malformed YAML: %w", err)
	}

	applyDefaults(&pb)

	// Validate the structure
	if err := validate.Struct(&pb); err != nil {
		return nil, formatValidationError(err)
	}

	return &pb, nil
}

// applyDefaults fills in the optional fields the pipeline expects to be set.
func applyDefaults(pb *playbook.Playbook) {
	if pb.Spec.WorkDir == "" {
		pb.Spec.WorkDir = "."
	}
	if pb.Spec.Runtime.Kind == "" {
		pb.Spec.Runtime.Kind = "local"
	}
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, formatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "required_if", "required_unless":
		return fmt.Sprintf("field '%s' is required for the selected collaborator", field)
	case "eq":
		return fmt.Sprintf("field '%s' must be '%s'", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, tag)
	}
}
