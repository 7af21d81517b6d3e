// internal/models/notification.go
package models

// Notification records one confirmation message sent after a successful
// submission.
type Notification struct {
	ApplicationID string `json:"applicationId"`
	Channel       string `json:"channel"` // "email", "sms"
	Recipient     string `json:"recipient"`
	Status        string `json:"status"` // "sent", "failed", "skipped"
	MessageID     string `json:"messageId,omitempty"`
	Error         string `json:"error,omitempty"`
}

type NotificationTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
