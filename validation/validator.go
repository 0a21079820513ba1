package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/medpipe/errors"
)

// FieldError is one failed rule, keyed by the JSON path of the field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// Validator accumulates field errors. Checks chain, and each one records at
// most a single error.
type Validator struct {
	failed []FieldError
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// AddError records message against field.
func (v *Validator) AddError(field, message string) {
	v.failed = append(v.failed, FieldError{Field: field, Message: message})
}

func (v *Validator) check(ok bool, field, format string, args ...any) *Validator {
	if !ok {
		v.AddError(field, fmt.Sprintf(format, args...))
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.failed) > 0 }

func (v *Validator) Errors() []FieldError { return v.failed }

// Validate folds the recorded errors into one ValidationError, or returns nil.
func (v *Validator) Validate() *errors.AppError {
	if len(v.failed) == 0 {
		return nil
	}
	return toAppError(v.failed)
}

func toAppError(fields []FieldError) *errors.AppError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.String())
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}

// Struct evaluates the validate tags of s.
func (v *Validator) Struct(s any) *Validator {
	v.failed = append(v.failed, StructErrors(s)...)
	return v
}

// Required fails on empty or whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(strings.TrimSpace(value) != "", field, "is required")
}

// MinLength and MaxLength count characters, not bytes.
func (v *Validator) MinLength(field, value string, n int) *Validator {
	return v.check(utf8.RuneCountInString(value) >= n, field, "must be at least %d characters", n)
}

func (v *Validator) MaxLength(field, value string, n int) *Validator {
	return v.check(utf8.RuneCountInString(value) <= n, field, "must be %d characters or less", n)
}

// Text requires value and bounds its length. The minimum applies to the
// trimmed text so padding cannot satisfy it; the maximum applies to the raw
// text.
func (v *Validator) Text(field, value string, minLen, maxLen int) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.check(false, field, "is required")
	}
	return v.MinLength(field, strings.TrimSpace(value), minLen).
		MaxLength(field, value, maxLen)
}

// Range is inclusive on both ends.
func (v *Validator) Range(field string, value, lo, hi int) *Validator {
	return v.check(value >= lo && value <= hi, field, "must be between %d and %d", lo, hi)
}

// HTTPURL requires value and checks it with CheckHTTPURL.
func (v *Validator) HTTPURL(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.check(false, field, "is required")
	}
	err := CheckHTTPURL(value)
	return v.check(err == nil, field, "%v", err)
}

// CheckHTTPURL reports why raw is not an absolute http(s) URL with a host.
func CheckHTTPURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	switch {
	case err != nil:
		return fmt.Errorf("must be a valid URL")
	case !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https"):
		return fmt.Errorf("must use http or https")
	case u.Hostname() == "":
		return fmt.Errorf("must include a host")
	}
	return nil
}

// OneOf skips empty values; optional fields pass through.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.check(value == "" || slices.Contains(allowed, value), field,
		"must be one of: %s", strings.Join(allowed, ", "))
}

// Custom records message when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	return v.check(ok, field, "%s", message)
}
