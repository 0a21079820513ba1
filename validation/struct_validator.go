package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// tags is shared; validator.Validate caches struct metadata and is safe for
// concurrent use.
var tags = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
})

// jsonName reports a field by its json key, falling back to snake_case.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return toSnakeCase(f.Name)
	}
	return name
}

// Validate evaluates the validate tags of s and returns a ValidationError
// or nil.
func Validate(s any) error {
	if fields := StructErrors(s); len(fields) > 0 {
		return toAppError(fields)
	}
	return nil
}

// StructErrors returns one FieldError per failed tag, keyed by JSON path
// ("symptoms[0].symptom").
func StructErrors(s any) []FieldError {
	err := tags().Struct(s)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return []FieldError{{Field: "body", Message: "is invalid"}}
	}
	out := make([]FieldError, len(failures))
	for i, fe := range failures {
		out[i] = FieldError{Field: fieldPath(fe), Message: describe(fe)}
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	var unit string
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param() + unit
	case "max", "lte":
		return "must be at most " + fe.Param() + unit
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	}
	return "is invalid"
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
