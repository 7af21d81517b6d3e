// Package submission sends a completed application to the configured
// boundary and reports the outcome back to the wizard.
package submission

import (
	"context"
	"time"

	apperrors "social-support-wizard/internal/common/errors"
	"social-support-wizard/internal/common/i18n"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/common/metrics"
	"social-support-wizard/internal/common/observability"
	"social-support-wizard/internal/models"
)

type Pipeline struct {
	submitter  Submitter
	notifier   *Notifier
	translator *i18n.Translator
	obs        *observability.Observability
	timeout    time.Duration
	logger     logger.Logger
}

// NewPipeline wires a pipeline. notifier and obs may be nil.
func NewPipeline(cfg *Config, submitter Submitter, notifier *Notifier, translator *i18n.Translator, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		submitter:  submitter,
		notifier:   notifier,
		translator: translator,
		obs:        obs,
		timeout:    cfg.Timeout,
		logger:     log,
	}
}

// Submit validates step 3 with data, then makes exactly one boundary call.
// Field errors come back in the result with the wizard unchanged. A boundary
// failure leaves the localized app.error message in the wizard state and is
// also returned as a SUBMISSION_FAILED error.
func (p *Pipeline) Submit(ctx context.Context, w Wizard, locale string, data map[string]interface{}) (*Result, error) {
	fieldErrs, err := w.SubmitStep(ctx, models.TotalSteps, data)
	if err != nil {
		return nil, err
	}
	if len(fieldErrs) > 0 {
		return &Result{
			FieldErrors: p.translator.LocalizeErrors(locale, fieldErrs),
			State:       w.State(),
		}, nil
	}

	application, err := w.BeginSubmission(ctx)
	if err != nil {
		return nil, err
	}

	metrics.SubmissionsActive.Inc()
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	receipt, err := p.submitter.Submit(callCtx, application)
	cancel()
	duration := time.Since(start)
	metrics.SubmissionsActive.Dec()

	if err != nil {
		msg := p.translator.T(locale, "app.error")
		w.CompleteSubmission(ctx, models.SubmissionOutcome{Success: false, Message: msg})
		p.record(ctx, "failure", duration)

		stdErr := apperrors.NewSubmissionFailedError(msg, err)
		p.logger.Error("Submission failed", map[string]interface{}{
			"backend":   p.submitter.Name(),
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
			"duration":  duration.String(),
		})
		return &Result{Message: msg, State: w.State()}, stdErr
	}

	msg := p.translator.T(locale, "app.success")
	w.CompleteSubmission(ctx, models.SubmissionOutcome{Success: true, Message: msg})
	p.record(ctx, "success", duration)

	p.logger.Info("Application submitted", map[string]interface{}{
		"backend":       p.submitter.Name(),
		"applicationId": receipt.ApplicationID,
		"duration":      duration.String(),
	})

	return &Result{
		Receipt:       receipt,
		Message:       msg,
		State:         w.State(),
		Notifications: p.notifier.Notify(ctx, locale, application, receipt),
	}, nil
}

func (p *Pipeline) record(ctx context.Context, outcome string, duration time.Duration) {
	metrics.Submissions.WithLabelValues(p.submitter.Name(), outcome).Inc()
	p.obs.RecordSubmission(ctx, p.submitter.Name(), outcome, duration)
}
