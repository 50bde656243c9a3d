package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("agegroup", func(fl validator.FieldLevel) bool {
		return AgeGroup(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks a memory's fields. An out-of-range rating yields
// ErrInvalidRating; any other failure wraps ErrInvalidData.
func (m Memory) Validate() error {
	return validateStruct(m)
}

// Validate checks a discussion answer's fields, wrapping ErrInvalidData on failure.
func (a DiscussionAnswer) Validate() error {
	return validateStruct(a)
}

// Validate checks a movie's fields. An unknown age group yields
// ErrInvalidAgeGroup; any other failure wraps ErrInvalidData.
func (m Movie) Validate() error {
	return validateStruct(m)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch {
		case e.StructField() == "Rating":
			return fmt.Errorf("%w: got %v", ErrInvalidRating, e.Value())
		case e.Tag() == "agegroup":
			return fmt.Errorf("%w: %q", ErrInvalidAgeGroup, e.Value())
		}
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalidData, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
