package wizard

import (
	"encoding/json"
	"fmt"
	"sort"

	"social-support-wizard/internal/common/validation"
	"social-support-wizard/internal/models"
)

// Step describes one wizard page: the section it edits, its rules and its
// neighbours. Prev and Next are 0 at the ends of the sequence.
type Step struct {
	Index    int
	Section  string
	TitleKey string
	Schema   validation.Schema
	Prev     int
	Next     int

	section func(*models.ApplicationData) interface{}
}

func required() validation.Rule { return validation.Rule{Required: true} }

var personalInfoSchema = validation.Schema{
	{Field: "name", Rule: required()},
	{Field: "nationalId", Rule: required()},
	{Field: "dateOfBirth", Rule: required()},
	{Field: "gender", Rule: validation.Rule{Required: true, OneOf: models.Genders}},
	{Field: "address", Rule: required()},
	{Field: "city", Rule: required()},
	{Field: "state", Rule: required()},
	{Field: "country", Rule: required()},
	{Field: "phone", Rule: required()},
	{Field: "email", Rule: validation.Rule{
		Required:   true,
		Pattern:    validation.EmailPattern,
		PatternKey: validation.KeyEmail,
	}},
}

var familyFinancialSchema = validation.Schema{
	{Field: "maritalStatus", Rule: validation.Rule{Required: true, OneOf: models.MaritalStatuses}},
	{Field: "dependents", Rule: validation.Rule{Required: true, Integer: true, Min: validation.Float(0)}},
	{Field: "employmentStatus", Rule: validation.Rule{Required: true, OneOf: models.EmploymentStatuses}},
	{Field: "monthlyIncome", Rule: validation.Rule{Required: true, Numeric: true, Min: validation.Float(0)}},
	{Field: "housingStatus", Rule: validation.Rule{Required: true, OneOf: models.HousingStatuses}},
}

// NarrativeMinLength is the minimum character count of each situation text.
const NarrativeMinLength = 50

var situationSchema = validation.Schema{
	{Field: string(models.FieldCurrentFinancialSituation), Rule: validation.Rule{Required: true, MinLength: NarrativeMinLength}},
	{Field: string(models.FieldEmploymentCircumstances), Rule: validation.Rule{Required: true, MinLength: NarrativeMinLength}},
	{Field: string(models.FieldReasonForApplying), Rule: validation.Rule{Required: true, MinLength: NarrativeMinLength}},
}

var steps = []Step{
	{
		Index:    1,
		Section:  "personalInfo",
		TitleKey: "nav.personalInfo",
		Schema:   personalInfoSchema,
		Next:     2,
		section:  func(d *models.ApplicationData) interface{} { return &d.PersonalInfo },
	},
	{
		Index:    2,
		Section:  "familyFinancialInfo",
		TitleKey: "nav.familyFinancial",
		Schema:   familyFinancialSchema,
		Prev:     1,
		Next:     3,
		section:  func(d *models.ApplicationData) interface{} { return &d.FamilyFinancialInfo },
	},
	{
		Index:    3,
		Section:  "situationDescriptions",
		TitleKey: "nav.situationDescriptions",
		Schema:   situationSchema,
		Prev:     2,
		section:  func(d *models.ApplicationData) interface{} { return &d.SituationDescriptions },
	},
}

// StepFor returns the definition for a 1-based step index.
func StepFor(index int) (Step, bool) {
	if index < 1 || index > len(steps) {
		return Step{}, false
	}
	return steps[index-1], true
}

// Steps returns every step in order.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// merge overlays payload on the step's current section. Keys the step does
// not declare are dropped and returned sorted.
func (s Step) merge(data models.ApplicationData, payload map[string]interface{}) (map[string]interface{}, []string, error) {
	raw, err := json.Marshal(s.section(&data))
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", s.Section, err)
	}
	current := make(map[string]interface{})
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", s.Section, err)
	}

	var ignored []string
	for k, v := range payload {
		if _, ok := s.Schema.Lookup(k); !ok {
			ignored = append(ignored, k)
			continue
		}
		current[k] = v
	}
	sort.Strings(ignored)
	return current, ignored, nil
}

// apply writes validated values into the step's section of data.
func (s Step) apply(data *models.ApplicationData, values map[string]interface{}) error {
	raw, err := json.Marshal(s.Schema.Normalize(values))
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.Section, err)
	}
	if err := json.Unmarshal(raw, s.section(data)); err != nil {
		return fmt.Errorf("apply %s: %w", s.Section, err)
	}
	return nil
}

// Validate checks a complete section against the step's rules without
// touching any state.
func (s Step) Validate(data models.ApplicationData) []validation.FieldError {
	values, _, err := s.merge(data, nil)
	if err != nil {
		return []validation.FieldError{{Field: s.Section, Code: validation.CodeType, MessageKey: validation.KeyType}}
	}
	return s.Schema.Validate(values)
}
