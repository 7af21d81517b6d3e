package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-support-wizard/internal/common/i18n"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmail struct {
	to, subject, body string
	err               error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, body string) (string, error) {
	f.to, f.subject, f.body = to, subject, body
	if f.err != nil {
		return "", f.err
	}
	return "ses-msg", nil
}

type fakeSMS struct {
	phone, message string
	err            error
}

func (f *fakeSMS) SendSMS(_ context.Context, phone, message string) (string, error) {
	f.phone, f.message = phone, message
	if f.err != nil {
		return "", f.err
	}
	return "sns-msg", nil
}

func testReceipt() *models.SubmissionReceipt {
	return &models.SubmissionReceipt{ApplicationID: "app-42", Status: StatusSubmitted, SubmittedAt: time.Now()}
}

func TestNotifier_SendsBothChannels(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	n := NewNotifier(email, sms, i18n.New("en"), logger.NewTestLogger(t))

	results := n.Notify(context.Background(), "en", testApplication(), testReceipt())

	require.Len(t, results, 2)
	assert.Equal(t, models.Notification{
		ApplicationID: "app-42", Channel: ChannelEmail, Recipient: "amina@example.ae",
		Status: NotificationSent, MessageID: "ses-msg",
	}, results[0])
	assert.Equal(t, NotificationSent, results[1].Status)
	assert.Equal(t, "+971500000000", sms.phone)

	assert.Equal(t, "Your social support application was received", email.subject)
	assert.Equal(t, "Dear Amina Khalid, your application app-42 has been submitted successfully.", email.body)
	assert.Equal(t, email.body, sms.message)
}

func TestNotifier_Arabic(t *testing.T) {
	email := &fakeEmail{}
	n := NewNotifier(email, nil, i18n.New("en"), logger.NewTestLogger(t))

	n.Notify(context.Background(), "ar", testApplication(), testReceipt())

	assert.Contains(t, email.body, "Amina Khalid")
	assert.Contains(t, email.body, "app-42")
	assert.Contains(t, email.body, "عزيزي")
}

func TestNotifier_FailuresAreReported(t *testing.T) {
	n := NewNotifier(&fakeEmail{err: errors.New("MessageRejected")}, &fakeSMS{}, i18n.New("en"), logger.NewTestLogger(t))

	results := n.Notify(context.Background(), "en", testApplication(), testReceipt())

	require.Len(t, results, 2)
	assert.Equal(t, NotificationFailed, results[0].Status)
	assert.Equal(t, "MessageRejected", results[0].Error)
	assert.Equal(t, NotificationSent, results[1].Status)
}

func TestNotifier_SkipsMissingRecipient(t *testing.T) {
	sms := &fakeSMS{}
	n := NewNotifier(nil, sms, i18n.New("en"), logger.NewTestLogger(t))
	app := testApplication()
	app.PersonalInfo.Phone = ""

	results := n.Notify(context.Background(), "en", app, testReceipt())

	require.Len(t, results, 1)
	assert.Equal(t, NotificationSkipped, results[0].Status)
	assert.Empty(t, sms.phone)
}

func TestNotifier_Nil(t *testing.T) {
	var n *Notifier
	assert.Nil(t, n.Notify(context.Background(), "en", testApplication(), testReceipt()))
}
