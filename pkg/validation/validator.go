package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	nodeNamePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]*$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("nodestatus", func(fl validator.FieldLevel) bool {
		return model.NodeStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("nodename", func(fl validator.FieldLevel) bool {
		return nodeNamePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("action", func(fl validator.FieldLevel) bool {
		_, err := model.ParseAction(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("faction", func(fl validator.FieldLevel) bool {
		_, err := model.ParseFaction(fl.Field().String())
		return err == nil
	})
}

// Struct validates v against its `validate` struct tags.
// Custom tags: nodestatus, nodename, action, faction.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "nodestatus":
			return fmt.Errorf("%s: %q is not a node status", field, e.Value())
		case "nodename":
			return fmt.Errorf("%s: %q must be upper-case alphanumeric with - or _", field, e.Value())
		case "action":
			return fmt.Errorf("%s: %q is not an action", field, e.Value())
		case "faction":
			return fmt.Errorf("%s: %q is not a faction", field, e.Value())
		case "unique":
			return fmt.Errorf("%s: values must be unique", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
