package common

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError is one failed rule for one field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationRule checks a single value; nil means it passed.
type ValidationRule func(field string, value any) *ValidationError

// Validator collects failures across fields so callers can report all of
// them at once.
type Validator struct {
	failures []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Field(field string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if f := rule(field, value); f != nil {
			v.failures = append(v.failures, *f)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.failures) > 0
}

// Error joins every failure into one error wrapping ErrValidation, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, len(v.failures))
	for i, f := range v.failures {
		msgs[i] = f.Error()
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func fail(field string, value any, msg string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: msg}
}

func Required(field string, value any) *ValidationError {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fail(field, value, "is required")
	}
	if value == nil {
		return fail(field, value, "is required")
	}
	return nil
}

// MaxLength limits a string to max runes.
func MaxLength(max int) ValidationRule {
	return func(field string, value any) *ValidationError {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > max {
			return fail(field, value, fmt.Sprintf("must be at most %d characters", max))
		}
		return nil
	}
}

func UUID(field string, value any) *ValidationError {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return fail(field, value, "must be a valid UUID")
	}
	return nil
}

// URL requires an absolute http(s) URL.
func URL(field string, value any) *ValidationError {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fail(field, value, "must be an absolute http(s) URL")
	}
	return nil
}

// IntBetween requires an int within [min, max].
func IntBetween(min, max int) ValidationRule {
	return func(field string, value any) *ValidationError {
		n, ok := value.(int)
		if !ok || n < min || n > max {
			return fail(field, value, fmt.Sprintf("must be between %d and %d", min, max))
		}
		return nil
	}
}

func PositiveDuration(field string, value any) *ValidationError {
	d, ok := value.(time.Duration)
	if !ok || d <= 0 {
		return fail(field, value, "must be a positive duration")
	}
	return nil
}
