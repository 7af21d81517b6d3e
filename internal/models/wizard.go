// internal/models/wizard.go
package models

import "time"

// TotalSteps is the number of wizard steps.
const TotalSteps = 3

// WizardState is the full per-session wizard state and also the durable
// snapshot format.
type WizardState struct {
	CurrentStep  int             `json:"currentStep"`
	FormData     ApplicationData `json:"formData"`
	IsSubmitting bool            `json:"isSubmitting"`
	SubmitError  *string         `json:"submitError,omitempty"`
}

func DefaultWizardState() WizardState {
	return WizardState{
		CurrentStep: 1,
		FormData:    DefaultApplicationData(),
	}
}

// HasProgress reports whether the state differs from an untouched wizard:
// the user moved past step 1 or edited a personal field.
func (s WizardState) HasProgress() bool {
	return s.CurrentStep > 1 || s.FormData.PersonalInfo != DefaultPersonalInfo()
}

type SuggestionStatus string

const (
	SuggestionIdle    SuggestionStatus = "idle"
	SuggestionLoading SuggestionStatus = "loading"
	SuggestionReady   SuggestionStatus = "ready"
	SuggestionError   SuggestionStatus = "error"
)

// AIRequestState is the ephemeral state of one suggestion interaction.
type AIRequestState struct {
	TargetField    NarrativeField   `json:"targetField,omitempty"`
	SuggestionText string           `json:"suggestionText"`
	Status         SuggestionStatus `json:"status"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
}

// SubmissionReceipt is returned by a submission backend on success.
type SubmissionReceipt struct {
	ApplicationID string    `json:"applicationId"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submittedAt"`
	Backend       string    `json:"backend"`
}

// SubmissionOutcome is handed to the state machine once the boundary call
// returns.
type SubmissionOutcome struct {
	Success bool
	Message string
}
