package verification

import (
	"regexp"
	"strings"

	"SanduqVerify/internal/core/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// DefaultSteps returns the production verification flow: personal →
// identity → address → financial → business. The business step is
// optional; everything else gates progression.
func DefaultSteps() []domain.StepDefinition {
	return []domain.StepDefinition{
		{
			ID:       "personal",
			Title:    "Personal Information",
			Order:    1,
			Level:    1,
			Required: true,
			Fields: []domain.FieldDefinition{
				{
					ID: "firstName", Label: "First Name", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 2, MaxLength: 50},
				},
				{
					ID: "lastName", Label: "Last Name", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 2, MaxLength: 50},
				},
				{
					ID: "email", Label: "Email Address", Type: domain.FieldEmail, Required: true,
					Rules: &domain.ValidationRules{Pattern: emailPattern},
				},
				{
					ID: "phone", Label: "Phone Number", Type: domain.FieldPhone, Required: true,
					Rules: &domain.ValidationRules{Pattern: phonePattern},
				},
				{
					ID: "dateOfBirth", Label: "Date of Birth", Type: domain.FieldDate, Required: true,
					Rules: &domain.ValidationRules{Pattern: datePattern},
				},
			},
		},
		{
			ID:       "identity",
			Title:    "Identity Verification",
			Order:    2,
			Level:    1,
			Required: true,
			Fields: []domain.FieldDefinition{
				{
					ID: "idType", Label: "ID Type", Type: domain.FieldSelect, Required: true,
					Options: []string{"national_id", "passport", "drivers_license"},
					Rules: &domain.ValidationRules{Custom: oneOf("national_id", "passport", "drivers_license")},
				},
				{
					ID: "idNumber", Label: "ID Number", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 5, MaxLength: 50},
				},
			},
			Documents: []domain.DocumentType{domain.DocTypeIDFront, domain.DocTypeIDBack},
		},
		{
			ID:       "address",
			Title:    "Address Verification",
			Order:    3,
			Level:    2,
			Required: true,
			Fields: []domain.FieldDefinition{
				{
					ID: "street", Label: "Street Address", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 5, MaxLength: 120},
				},
				{
					ID: "city", Label: "City", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 2, MaxLength: 60},
				},
				{
					ID: "postalCode", Label: "Postal Code", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 3, MaxLength: 12},
				},
				{ID: "country", Label: "Country", Type: domain.FieldSelect, Required: true},
			},
			Documents: []domain.DocumentType{domain.DocTypeUtilityBill, domain.DocTypeBankStatement},
		},
		{
			ID:       "financial",
			Title:    "Financial Profile",
			Order:    4,
			Level:    2,
			Required: true,
			Fields: []domain.FieldDefinition{
				{
					ID: "occupation", Label: "Occupation", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 2, MaxLength: 80},
				},
				{
					ID: "monthlyIncome", Label: "Monthly Income", Type: domain.FieldNumber, Required: true,
					Rules: &domain.ValidationRules{Min: floatPtr(0), Max: floatPtr(10_000_000)},
				},
				{
					ID: "sourceOfFunds", Label: "Source of Funds", Type: domain.FieldTextarea, Required: false,
					Rules: &domain.ValidationRules{MaxLength: 500},
				},
			},
		},
		{
			ID:       "business",
			Title:    "Business Details",
			Order:    5,
			Level:    3,
			Required: false,
			Fields: []domain.FieldDefinition{
				{
					ID: "businessName", Label: "Business Name", Type: domain.FieldText, Required: true,
					Rules: &domain.ValidationRules{MinLength: 2, MaxLength: 120},
				},
				{
					ID: "registrationNumber", Label: "Registration Number", Type: domain.FieldText, Required: false,
					Rules: &domain.ValidationRules{MinLength: 4, MaxLength: 40},
				},
			},
			Documents: []domain.DocumentType{domain.DocTypeBusinessRegistration},
		},
	}
}

func oneOf(options ...string) func(string) string {
	return func(value string) string {
		for _, opt := range options {
			if value == opt {
				return ""
			}
		}
		return "select one of: " + strings.Join(options, ", ")
	}
}

func floatPtr(v float64) *float64 { return &v }
