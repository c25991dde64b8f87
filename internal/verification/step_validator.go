package verification

import (
	"fmt"

	"SanduqVerify/internal/core/domain"
)

// DocErrorKey returns the synthetic error-map key for a missing or
// unfinished required document.
func DocErrorKey(t domain.DocumentType) string {
	return "doc_" + string(t)
}

// ValidateStep runs the field validator over every field of the step
// and checks every required document for a successful upload. Unlike
// field validation there is no short-circuit: the returned map reports
// everything wrong at once so the user sees the full list in one pass.
// The step is valid iff the map is empty.
func ValidateStep(
	step domain.StepDefinition,
	formData map[string]string,
	documents map[domain.DocumentType]*domain.DocumentRecord,
) domain.ValidationErrors {
	errs := make(domain.ValidationErrors)

	for _, field := range step.Fields {
		if fieldErr := ValidateField(field, formData[field.ID]); fieldErr != nil {
			errs[field.ID] = fieldErr.Message
		}
	}

	for _, docType := range step.Documents {
		record, ok := documents[docType]
		if !ok || record.Status != domain.UploadSucceeded {
			errs[DocErrorKey(docType)] = fmt.Sprintf("document %q has not been uploaded", docType)
		}
	}

	return errs
}
