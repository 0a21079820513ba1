// Package validation checks inbound data before any stage runs.
//
// Two styles are combined: struct tags evaluated by go-playground/validator
// for shape and required fields, and a fluent Validator for bounds that come
// from configuration. Both report a single ValidationError whose details list
// every failing field.
package validation
