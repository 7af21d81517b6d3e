// internal/models/application.go
package models

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentSelfEmployed EmploymentStatus = "self-employed"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentStudent      EmploymentStatus = "student"
)

type HousingStatus string

const (
	HousingOwned    HousingStatus = "owned"
	HousingRented   HousingStatus = "rented"
	HousingShared   HousingStatus = "shared"
	HousingHomeless HousingStatus = "homeless"
)

var (
	Genders            = []string{string(GenderMale), string(GenderFemale), string(GenderOther)}
	MaritalStatuses    = []string{string(MaritalSingle), string(MaritalMarried), string(MaritalDivorced), string(MaritalWidowed)}
	EmploymentStatuses = []string{string(EmploymentEmployed), string(EmploymentUnemployed), string(EmploymentSelfEmployed), string(EmploymentRetired), string(EmploymentStudent)}
	HousingStatuses    = []string{string(HousingOwned), string(HousingRented), string(HousingShared), string(HousingHomeless)}
)

// ApplicationData is the aggregate record built across the wizard steps.
// All three sections are always present.
type ApplicationData struct {
	PersonalInfo          PersonalInfo          `json:"personalInfo"`
	FamilyFinancialInfo   FamilyFinancialInfo   `json:"familyFinancialInfo"`
	SituationDescriptions SituationDescriptions `json:"situationDescriptions"`
}

type PersonalInfo struct {
	Name        string `json:"name"`
	NationalID  string `json:"nationalId"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

type FamilyFinancialInfo struct {
	MaritalStatus    MaritalStatus    `json:"maritalStatus"`
	Dependents       int              `json:"dependents"`
	EmploymentStatus EmploymentStatus `json:"employmentStatus"`
	MonthlyIncome    float64          `json:"monthlyIncome"`
	HousingStatus    HousingStatus    `json:"housingStatus"`
}

type SituationDescriptions struct {
	CurrentFinancialSituation string `json:"currentFinancialSituation"`
	EmploymentCircumstances   string `json:"employmentCircumstances"`
	ReasonForApplying         string `json:"reasonForApplying"`
}

// NarrativeField names one of the free-text fields of SituationDescriptions.
type NarrativeField string

const (
	FieldCurrentFinancialSituation NarrativeField = "currentFinancialSituation"
	FieldEmploymentCircumstances   NarrativeField = "employmentCircumstances"
	FieldReasonForApplying         NarrativeField = "reasonForApplying"
)

var NarrativeFields = []NarrativeField{
	FieldCurrentFinancialSituation,
	FieldEmploymentCircumstances,
	FieldReasonForApplying,
}

// ParseNarrativeField returns false for anything outside NarrativeFields.
func ParseNarrativeField(s string) (NarrativeField, bool) {
	for _, f := range NarrativeFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Get returns the current text of field.
func (s SituationDescriptions) Get(field NarrativeField) string {
	switch field {
	case FieldCurrentFinancialSituation:
		return s.CurrentFinancialSituation
	case FieldEmploymentCircumstances:
		return s.EmploymentCircumstances
	case FieldReasonForApplying:
		return s.ReasonForApplying
	}
	return ""
}

// Set writes text into field and reports whether the field is known.
func (s *SituationDescriptions) Set(field NarrativeField, text string) bool {
	switch field {
	case FieldCurrentFinancialSituation:
		s.CurrentFinancialSituation = text
	case FieldEmploymentCircumstances:
		s.EmploymentCircumstances = text
	case FieldReasonForApplying:
		s.ReasonForApplying = text
	default:
		return false
	}
	return true
}

func DefaultPersonalInfo() PersonalInfo {
	return PersonalInfo{Gender: GenderMale}
}

func DefaultFamilyFinancialInfo() FamilyFinancialInfo {
	return FamilyFinancialInfo{
		MaritalStatus:    MaritalSingle,
		Dependents:       0,
		EmploymentStatus: EmploymentUnemployed,
		MonthlyIncome:    0,
		HousingStatus:    HousingRented,
	}
}

// DefaultApplicationData returns the record a fresh wizard starts from.
func DefaultApplicationData() ApplicationData {
	return ApplicationData{
		PersonalInfo:        DefaultPersonalInfo(),
		FamilyFinancialInfo: DefaultFamilyFinancialInfo(),
	}
}
