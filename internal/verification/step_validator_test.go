package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SanduqVerify/internal/core/domain"
)

func addressStep() domain.StepDefinition {
	for _, step := range DefaultSteps() {
		if step.ID == "address" {
			return step
		}
	}
	panic("address step missing from defaults")
}

func TestValidateStep_ReportsEverythingAtOnce(t *testing.T) {
	step := domain.StepDefinition{
		ID: "personal",
		Fields: []domain.FieldDefinition{
			{ID: "firstName", Required: true},
			{ID: "lastName", Required: true},
			{ID: "nickname", Required: false},
		},
	}

	// Unlike field validation there is no short-circuit: both missing
	// fields show up in one pass.
	errs := ValidateStep(step, map[string]string{}, nil)
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "firstName")
	assert.Contains(t, errs, "lastName")
	assert.False(t, errs.Valid())
}

func TestValidateStep_DocumentGating(t *testing.T) {
	step := addressStep()
	formData := map[string]string{
		"street":     "12 Meydan-e Azadi",
		"city":       "Tehran",
		"postalCode": "11369",
		"country":    "IR",
	}

	// 1. No documents at all: both required types are reported.
	errs := ValidateStep(step, formData, map[domain.DocumentType]*domain.DocumentRecord{})
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "doc_utility_bill")
	assert.Contains(t, errs, "doc_bank_statement")

	// 2. Only the utility bill reached success.
	docs := map[domain.DocumentType]*domain.DocumentRecord{
		"utility_bill":   {Type: "utility_bill", Status: domain.UploadSucceeded, Progress: 100},
		"bank_statement": {Type: "bank_statement", Status: domain.UploadInFlight, Progress: 40},
	}
	errs = ValidateStep(step, formData, docs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs, "doc_bank_statement")

	// 3. A failed upload gates exactly like a missing one.
	docs["bank_statement"] = &domain.DocumentRecord{Type: "bank_statement", Status: domain.UploadFailed, Error: "boom"}
	errs = ValidateStep(step, formData, docs)
	assert.Contains(t, errs, "doc_bank_statement")

	// 4. Both succeeded: the step is valid.
	docs["bank_statement"] = &domain.DocumentRecord{Type: "bank_statement", Status: domain.UploadSucceeded, Progress: 100}
	errs = ValidateStep(step, formData, docs)
	assert.True(t, errs.Valid())
}

func TestValidateStep_FieldAndDocumentErrorsCombine(t *testing.T) {
	step := addressStep()

	errs := ValidateStep(step, map[string]string{"city": "Tehran"}, nil)
	// Three missing fields plus two missing documents.
	assert.Len(t, errs, 5)
	assert.Contains(t, errs, "street")
	assert.Contains(t, errs, "postalCode")
	assert.Contains(t, errs, "country")
	assert.Contains(t, errs, DocErrorKey("utility_bill"))
	assert.Contains(t, errs, DocErrorKey("bank_statement"))
}
