package verification

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"SanduqVerify/internal/core/domain"
)

// ValidateField evaluates one field value against its definition. The
// first failing rule wins; later rules are not evaluated. It is a pure
// function: no side effects, same inputs always produce the same
// result.
//
// Rule precedence: required, pattern, minLength/maxLength, min/max,
// custom. Optional fields with an empty value always pass.
func ValidateField(f domain.FieldDefinition, value string) *domain.FieldError {
	empty := strings.TrimSpace(value) == ""

	if f.Required && empty {
		return fieldError(f, domain.ErrCodeRequired, fmt.Sprintf("%s is required", labelOf(f)))
	}
	if empty {
		// Optional and unset: format checks never run.
		return nil
	}

	rules := f.Rules
	if rules == nil {
		return nil
	}

	if rules.Pattern != nil && !rules.Pattern.MatchString(value) {
		return fieldError(f, domain.ErrCodeFormat, fmt.Sprintf("%s has an invalid format", labelOf(f)))
	}

	length := utf8.RuneCountInString(value)
	if rules.MinLength > 0 && length < rules.MinLength {
		return fieldError(f, domain.ErrCodeMinLength,
			fmt.Sprintf("%s must be at least %d characters", labelOf(f), rules.MinLength))
	}
	if rules.MaxLength > 0 && length > rules.MaxLength {
		return fieldError(f, domain.ErrCodeMaxLength,
			fmt.Sprintf("%s must be at most %d characters", labelOf(f), rules.MaxLength))
	}

	if rules.Min != nil || rules.Max != nil {
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fieldError(f, domain.ErrCodeFormat, fmt.Sprintf("%s must be a number", labelOf(f)))
		}
		if rules.Min != nil && n < *rules.Min {
			return fieldError(f, domain.ErrCodeMin,
				fmt.Sprintf("%s must be at least %v", labelOf(f), *rules.Min))
		}
		if rules.Max != nil && n > *rules.Max {
			return fieldError(f, domain.ErrCodeMax,
				fmt.Sprintf("%s must be at most %v", labelOf(f), *rules.Max))
		}
	}

	if rules.Custom != nil {
		if msg := rules.Custom(value); msg != "" {
			return fieldError(f, domain.ErrCodeCustom, msg)
		}
	}

	return nil
}

func fieldError(f domain.FieldDefinition, code, message string) *domain.FieldError {
	return &domain.FieldError{FieldID: f.ID, Code: code, Message: message}
}

func labelOf(f domain.FieldDefinition) string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}
