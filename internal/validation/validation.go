// Package validation checks student write payloads.
//
// The rules live as struct tags on types.StudentInput and are evaluated by
// go-playground/validator. The validator reports every failing field at
// once; callers of this package only ever want one human-readable reason,
// so the field errors are ranked and the highest-priority reason wins:
//
//	missing name/email  >  malformed email  >  malformed phone  >  bad mark
package validation

import (
	"errors"
	"math"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-marks-api/internal/types"
)

// Reasons returned to API clients, in precedence order.
const (
	ReasonRequired     = "Name and email are required"
	ReasonInvalidEmail = "Invalid email format"
	ReasonInvalidPhone = "Invalid phone number"
	ReasonInvalidMark  = "Invalid mark (must be between 0 and 100)"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
)

// Error is a rejected payload. Reason is safe to show to the user.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// validate is built once; *validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// RegisterValidation only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})

	// Let omitempty/min/max operate on the number inside a MarkValue.
	// Absent marks become nil (skipped by omitempty); present marks that
	// are not numeric become NaN, which fails min.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		m, ok := field.Interface().(types.MarkValue)
		if !ok || !m.Present {
			return nil
		}
		if !m.Numeric {
			return math.NaN()
		}
		return m.Value
	}, types.MarkValue{})

	return v
}

// Validate returns nil when in is acceptable, or an *Error carrying the
// single most important reason it is not. It has no side effects.
func Validate(in types.StudentInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: only possible if in were not a struct.
		return err
	}

	best := len(precedence)
	for _, fe := range fieldErrs {
		if r := rank(fe); r < best {
			best = r
		}
	}
	if best == len(precedence) {
		return &Error{Reason: fieldErrs.Error()}
	}
	return &Error{Reason: precedence[best]}
}

var precedence = []string{
	ReasonRequired,
	ReasonInvalidEmail,
	ReasonInvalidPhone,
	ReasonInvalidMark,
}

func rank(fe validator.FieldError) int {
	switch fe.StructField() {
	case "Name":
		return 0
	case "Email":
		if fe.Tag() == "required" {
			return 0
		}
		return 1
	case "Phone":
		return 2
	case "Mark":
		return 3
	}
	return len(precedence)
}
