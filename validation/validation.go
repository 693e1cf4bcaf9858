package validation

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/zones"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with field-specific details.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Fields flattens a validation error into its field errors. Other errors
// yield nil.
func Fields(err error) []ValidationError {
	switch e := err.(type) {
	case ValidationError:
		return []ValidationError{e}
	case ValidationErrors:
		return e.Errors
	}
	return nil
}

// playgroundValidator adapts go-playground/validator to ports.Validator.
type playgroundValidator struct {
	validator *validator.Validate
}

// New returns the validator with the clock's custom rules registered:
//
//	zone  value is an identifier from the zones catalog
func New() ports.Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "" {
			return fld.Name
		}
		name := strings.Split(tag, ",")[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("zone", func(fl validator.FieldLevel) bool {
		return zones.Contains(fl.Field().String())
	})
	return &playgroundValidator{validator: v}
}

func (p *playgroundValidator) ValidateStruct(ctx context.Context, obj any) error {
	if obj == nil {
		return ValidationError{Message: "object is required"}
	}
	return convertError(p.validator.StructCtx(ctx, obj))
}

func convertError(err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok {
		errs := ValidationErrors{}
		for _, fe := range ve {
			errs.Errors = append(errs.Errors, ValidationError{
				Field:   fe.Field(),
				Message: buildMessage(fe),
				Value:   fmt.Sprintf("%v", fe.Value()),
			})
		}
		if len(errs.Errors) == 1 {
			return errs.Errors[0]
		}
		return errs
	}
	return err
}

func buildMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "zone":
		return "is not a selectable time zone"
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed '%s'=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}
