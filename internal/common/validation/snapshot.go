package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// snapshotSchema describes a structurally valid persisted wizard state.
// Narrative lengths are not checked here: an in-progress snapshot may hold
// partial text.
const snapshotSchema = `{
  "type": "object",
  "required": ["currentStep", "formData", "isSubmitting"],
  "properties": {
    "currentStep": {"type": "integer", "minimum": 1, "maximum": 3},
    "isSubmitting": {"type": "boolean"},
    "submitError": {"type": ["string", "null"]},
    "formData": {
      "type": "object",
      "required": ["personalInfo", "familyFinancialInfo", "situationDescriptions"],
      "properties": {
        "personalInfo": {
          "type": "object",
          "required": ["name", "nationalId", "dateOfBirth", "gender", "address", "city", "state", "country", "phone", "email"],
          "properties": {
            "name": {"type": "string"},
            "nationalId": {"type": "string"},
            "dateOfBirth": {"type": "string"},
            "gender": {"enum": ["male", "female", "other"]},
            "address": {"type": "string"},
            "city": {"type": "string"},
            "state": {"type": "string"},
            "country": {"type": "string"},
            "phone": {"type": "string"},
            "email": {"type": "string"}
          }
        },
        "familyFinancialInfo": {
          "type": "object",
          "required": ["maritalStatus", "dependents", "employmentStatus", "monthlyIncome", "housingStatus"],
          "properties": {
            "maritalStatus": {"enum": ["single", "married", "divorced", "widowed"]},
            "dependents": {"type": "integer", "minimum": 0},
            "employmentStatus": {"enum": ["employed", "unemployed", "self-employed", "retired", "student"]},
            "monthlyIncome": {"type": "number", "minimum": 0},
            "housingStatus": {"enum": ["owned", "rented", "shared", "homeless"]}
          }
        },
        "situationDescriptions": {
          "type": "object",
          "required": ["currentFinancialSituation", "employmentCircumstances", "reasonForApplying"],
          "properties": {
            "currentFinancialSituation": {"type": "string"},
            "employmentCircumstances": {"type": "string"},
            "reasonForApplying": {"type": "string"}
          }
        }
      }
    }
  }
}`

var snapshotSchemaLoader = gojsonschema.NewStringLoader(snapshotSchema)

// ValidateSnapshot checks raw JSON against the wizard state schema.
func ValidateSnapshot(raw []byte) error {
	result, err := gojsonschema.Validate(snapshotSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("snapshot is not valid JSON: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("snapshot validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
