package submission

import (
	"context"

	"social-support-wizard/internal/common/i18n"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// EmailSender is implemented by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is implemented by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// Notifier confirms a successful submission to the applicant. A nil sender
// disables its channel. Failures are reported in the result and logged,
// never returned.
type Notifier struct {
	email      EmailSender
	sms        SMSSender
	translator *i18n.Translator
	logger     logger.Logger
}

func NewNotifier(email EmailSender, sms SMSSender, translator *i18n.Translator, log logger.Logger) *Notifier {
	return &Notifier{
		email:      email,
		sms:        sms,
		translator: translator,
		logger:     log,
	}
}

func (n *Notifier) template(locale string, data models.ApplicationData, receipt *models.SubmissionReceipt) models.NotificationTemplate {
	return models.NotificationTemplate{
		Subject: n.translator.T(locale, "notification.subject"),
		Body:    n.translator.T(locale, "notification.body", data.PersonalInfo.Name, receipt.ApplicationID),
	}
}

func (n *Notifier) Notify(ctx context.Context, locale string, data models.ApplicationData, receipt *models.SubmissionReceipt) []models.Notification {
	if n == nil {
		return nil
	}
	tmpl := n.template(locale, data, receipt)

	var out []models.Notification
	if n.email != nil {
		out = append(out, n.send(ctx, ChannelEmail, receipt.ApplicationID, data.PersonalInfo.Email, func(ctx context.Context) (string, error) {
			return n.email.SendEmail(ctx, data.PersonalInfo.Email, tmpl.Subject, tmpl.Body)
		}))
	}
	if n.sms != nil {
		out = append(out, n.send(ctx, ChannelSMS, receipt.ApplicationID, data.PersonalInfo.Phone, func(ctx context.Context) (string, error) {
			return n.sms.SendSMS(ctx, data.PersonalInfo.Phone, tmpl.Body)
		}))
	}
	return out
}

func (n *Notifier) send(ctx context.Context, channel, applicationID, recipient string, fn func(context.Context) (string, error)) models.Notification {
	result := models.Notification{
		ApplicationID: applicationID,
		Channel:       channel,
		Recipient:     recipient,
		Status:        NotificationSkipped,
	}
	if recipient == "" {
		return result
	}

	id, err := fn(ctx)
	if err != nil {
		n.logger.Error("notification send failed", map[string]interface{}{
			"channel":       channel,
			"applicationId": applicationID,
			"error":         err.Error(),
		})
		result.Status = NotificationFailed
		result.Error = err.Error()
		return result
	}

	result.Status = NotificationSent
	result.MessageID = id
	return result
}
