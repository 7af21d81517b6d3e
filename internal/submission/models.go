package submission

import (
	"context"

	"social-support-wizard/internal/common/validation"
	"social-support-wizard/internal/models"
)

const StatusSubmitted = "submitted"

// Submitter is the external submission boundary. Calls are not deduplicated:
// every call is a new application.
type Submitter interface {
	Submit(ctx context.Context, data models.ApplicationData) (*models.SubmissionReceipt, error)
	Name() string
}

// Wizard is the part of wizard.Machine the pipeline drives.
type Wizard interface {
	SubmitStep(ctx context.Context, step int, data map[string]interface{}) ([]validation.FieldError, error)
	BeginSubmission(ctx context.Context) (models.ApplicationData, error)
	CompleteSubmission(ctx context.Context, outcome models.SubmissionOutcome)
	State() models.WizardState
}

// Result is what a submit attempt produced. FieldErrors is set when step 3
// did not validate and nothing was sent.
type Result struct {
	FieldErrors   []validation.FieldError   `json:"fieldErrors,omitempty"`
	Receipt       *models.SubmissionReceipt `json:"receipt,omitempty"`
	Message       string                    `json:"message,omitempty"`
	State         models.WizardState        `json:"state"`
	Notifications []models.Notification     `json:"notifications,omitempty"`
}

// applicationEvent is the payload sent to the http and camunda backends.
type applicationEvent struct {
	ApplicationID string                 `json:"applicationId"`
	SubmittedAt   string                 `json:"submittedAt"`
	Application   models.ApplicationData `json:"application"`
}
