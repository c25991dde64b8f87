package domain

import "regexp"

// FieldType is a custom type for our field-kind ENUM.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldPassword FieldType = "password"
)

// ValidationRules holds the optional constraints attached to a field.
// A nil pointer means "not configured" for the numeric bounds so that
// zero is still a usable bound.
type ValidationRules struct {
	Pattern   *regexp.Regexp
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64

	// Custom returns a human-readable error message, or "" when the
	// value is acceptable. It only runs after all built-in rules pass.
	Custom func(value string) string
}

// FieldDefinition describes a single typed input on a verification step.
// Definitions are immutable once the session is configured.
type FieldDefinition struct {
	ID       string
	Label    string
	Type     FieldType
	Required bool
	Rules    *ValidationRules
	Options  []string // populated for select fields
}
