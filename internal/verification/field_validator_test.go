package verification

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SanduqVerify/internal/core/domain"
)

func TestValidateField_RequiredAndOptional(t *testing.T) {
	required := domain.FieldDefinition{ID: "firstName", Label: "First Name", Type: domain.FieldText, Required: true}
	optional := domain.FieldDefinition{
		ID: "sourceOfFunds", Type: domain.FieldTextarea, Required: false,
		Rules: &domain.ValidationRules{MinLength: 10},
	}

	// Required + empty fails with the required code, nothing else runs.
	err := ValidateField(required, "")
	require.NotNil(t, err)
	assert.Equal(t, domain.ErrCodeRequired, err.Code)
	assert.Equal(t, "firstName", err.FieldID)

	// Whitespace counts as empty.
	err = ValidateField(required, "   ")
	require.NotNil(t, err)
	assert.Equal(t, domain.ErrCodeRequired, err.Code)

	// Optional + empty short-circuits to success even with rules that
	// would fail on an empty string.
	assert.Nil(t, ValidateField(optional, ""))
}

func TestValidateField_RulePrecedence(t *testing.T) {
	field := domain.FieldDefinition{
		ID: "idNumber", Type: domain.FieldText, Required: true,
		Rules: &domain.ValidationRules{
			Pattern:   regexp.MustCompile(`^[A-Z0-9]+$`),
			MinLength: 5,
			MaxLength: 10,
			Custom: func(string) string {
				return "custom always fails"
			},
		},
	}

	tests := []struct {
		name     string
		value    string
		wantCode string
	}{
		{"pattern beats length", "ab", domain.ErrCodeFormat},
		{"min length beats custom", "AB1", domain.ErrCodeMinLength},
		{"max length beats custom", "AB123456789XY", domain.ErrCodeMaxLength},
		{"custom runs last", "AB12345", domain.ErrCodeCustom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateField(field, tc.value)
			require.NotNil(t, err)
			assert.Equal(t, tc.wantCode, err.Code)
		})
	}
}

func TestValidateField_NumericBounds(t *testing.T) {
	field := domain.FieldDefinition{
		ID: "monthlyIncome", Type: domain.FieldNumber, Required: true,
		Rules: &domain.ValidationRules{Min: floatPtr(100), Max: floatPtr(5000)},
	}

	tests := []struct {
		value    string
		wantCode string
	}{
		{"not-a-number", domain.ErrCodeFormat},
		{"99.9", domain.ErrCodeMin},
		{"5000.01", domain.ErrCodeMax},
	}
	for _, tc := range tests {
		err := ValidateField(field, tc.value)
		require.NotNil(t, err, "value %q", tc.value)
		assert.Equal(t, tc.wantCode, err.Code)
	}

	assert.Nil(t, ValidateField(field, "100"))
	assert.Nil(t, ValidateField(field, "5000"))
}

func TestValidateField_CustomMessageSurfaces(t *testing.T) {
	field := domain.FieldDefinition{
		ID: "idType", Type: domain.FieldSelect, Required: true,
		Rules: &domain.ValidationRules{Custom: oneOf("passport", "national_id")},
	}

	err := ValidateField(field, "library_card")
	require.NotNil(t, err)
	assert.Equal(t, domain.ErrCodeCustom, err.Code)
	assert.Contains(t, err.Message, "passport")

	assert.Nil(t, ValidateField(field, "passport"))
}

func TestValidateField_Deterministic(t *testing.T) {
	field := domain.FieldDefinition{
		ID: "email", Type: domain.FieldEmail, Required: true,
		Rules: &domain.ValidationRules{Pattern: emailPattern},
	}

	// Same inputs, same result, every time.
	for i := 0; i < 10; i++ {
		err := ValidateField(field, "not-an-email")
		require.NotNil(t, err)
		assert.Equal(t, domain.ErrCodeFormat, err.Code)
		assert.Nil(t, ValidateField(field, "a@b.co"))
	}
}

func TestValidateField_RuneAwareLength(t *testing.T) {
	field := domain.FieldDefinition{
		ID: "firstName", Type: domain.FieldText, Required: true,
		Rules: &domain.ValidationRules{MinLength: 2, MaxLength: 4},
	}

	// Multi-byte characters count as single characters.
	assert.Nil(t, ValidateField(field, "سارا"))
	err := ValidateField(field, "م")
	require.NotNil(t, err)
	assert.Equal(t, domain.ErrCodeMinLength, err.Code)
}
