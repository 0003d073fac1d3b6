// Package validator wraps the go-playground/validator library behind a
// single Validate function with standardized error formatting. Struct fields
// opt into validation with tags (e.g. `validate:"required"`); failures come
// back as a multi-error chain rooted in ErrValidationFailed.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the root of every validation error chain, so
// callers can detect failures with errors.Is regardless of how many fields
// were rejected.
var ErrValidationFailed = errors.New("struct validation failed")

// validate is the singleton validator instance, configured at import time.
var validate *gvalidator.Validate

func init() {
	validate = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError turns the library's field errors into a combined error chain
// rooted in ErrValidationFailed; other errors pass through unchanged.
func formatError(err error) error {
	var fieldErrors gvalidator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, fieldErr := range fieldErrors {
		errs = append(errs, fmt.Errorf("'%s': value '%v' does not meet the requirements for the '%s' validation",
			fieldErr.Field(),
			fieldErr.Value(),
			fieldErr.Tag(),
		))
	}

	return errors.Join(errs...)
}

// Validate checks the given struct against its validation tags. It returns
// nil on success, or a combined error including ErrValidationFailed and one
// message per rejected field.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
