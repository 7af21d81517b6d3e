// Package wizard owns step sequencing, per-step validation and the
// submission lifecycle of one application session.
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"social-support-wizard/internal/common/errors"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/common/metrics"
	"social-support-wizard/internal/common/validation"
	"social-support-wizard/internal/models"
)

// Persister is the durable side of the machine. Implementations must not
// fail the caller: store problems are theirs to log.
type Persister interface {
	Load(ctx context.Context) ([]byte, bool)
	Save(ctx context.Context, state models.WizardState)
	Clear(ctx context.Context)
}

type nopPersister struct{}

func (nopPersister) Load(context.Context) ([]byte, bool)      { return nil, false }
func (nopPersister) Save(context.Context, models.WizardState) {}
func (nopPersister) Clear(context.Context)                    {}

// Machine is the per-session wizard controller. All transitions are
// serialized.
type Machine struct {
	mu     sync.Mutex
	state  models.WizardState
	store  Persister
	logger logger.Logger
}

// NewMachine starts from the default state. A nil store disables
// persistence.
func NewMachine(store Persister, log logger.Logger) *Machine {
	if store == nil {
		store = nopPersister{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Machine{
		state:  models.DefaultWizardState(),
		store:  store,
		logger: log,
	}
}

// DecodeSnapshot parses and structurally validates a persisted state. A
// snapshot taken mid-submission comes back with IsSubmitting cleared.
func DecodeSnapshot(raw []byte) (models.WizardState, bool, error) {
	if err := validation.ValidateSnapshot(raw); err != nil {
		return models.WizardState{}, false, errors.NewSnapshotMalformedError(err)
	}
	var state models.WizardState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.WizardState{}, false, errors.NewSnapshotMalformedError(err)
	}
	wasSubmitting := state.IsSubmitting
	state.IsSubmitting = false
	return state, wasSubmitting, nil
}

// Restore hydrates from the store. It reports whether saved state was used.
func (m *Machine) Restore(ctx context.Context) bool {
	raw, ok := m.store.Load(ctx)
	if !ok {
		return false
	}
	return m.Hydrate(raw)
}

// Hydrate replaces the whole state with the snapshot when it is well formed.
// Otherwise the machine falls back to defaults and logs why; it never fails
// the caller.
func (m *Machine) Hydrate(raw []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, wasSubmitting, err := DecodeSnapshot(raw)
	if err != nil {
		m.logger.Warn("Discarding malformed snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		m.state = models.DefaultWizardState()
		return false
	}
	if wasSubmitting {
		m.logger.Info("Snapshot was taken during submission, clearing flag", nil)
	}

	m.state = state
	m.logger.Debug("Wizard state hydrated", map[string]interface{}{
		"currentStep": state.CurrentStep,
	})
	return true
}

// State returns a copy of the current state.
func (m *Machine) State() models.WizardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Machine) snapshot() models.WizardState {
	s := m.state
	if s.SubmitError != nil {
		msg := *s.SubmitError
		s.SubmitError = &msg
	}
	return s
}

// GoToStep moves back to step n without validating. Targets outside
// [1, TotalSteps] or ahead of the current step are ignored.
func (m *Machine) GoToStep(ctx context.Context, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsSubmitting {
		return errors.NewSubmissionInProgressError()
	}
	if n < 1 || n > models.TotalSteps || n > m.state.CurrentStep {
		m.logger.Debug("Ignoring step navigation", map[string]interface{}{
			"target":      n,
			"currentStep": m.state.CurrentStep,
		})
		return nil
	}
	if n == m.state.CurrentStep {
		return nil
	}

	from := m.state.CurrentStep
	m.state.CurrentStep = n
	recordTransition(from, n, "back")
	m.store.Save(ctx, m.snapshot())
	return nil
}

// SubmitStep validates data merged over the step's section. On success the
// section is updated and the machine advances one step, capped at the last.
// Field errors come back with a nil error and leave state untouched; the
// error return is reserved for rejected calls.
func (m *Machine) SubmitStep(ctx context.Context, step int, data map[string]interface{}) ([]validation.FieldError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsSubmitting {
		return nil, errors.NewSubmissionInProgressError()
	}
	def, ok := StepFor(step)
	if !ok {
		return nil, errors.NewStepOutOfRangeError(step, models.TotalSteps)
	}
	if step > m.state.CurrentStep {
		return nil, errors.NewStepNotReachedError(step, m.state.CurrentStep)
	}

	merged, ignored, err := def.merge(m.state.FormData, data)
	if err != nil {
		return nil, fmt.Errorf("submit step %d: %w", step, err)
	}
	if len(ignored) > 0 {
		m.logger.Warn("Ignoring unknown step fields", map[string]interface{}{
			"step":   step,
			"fields": ignored,
		})
	}

	if fieldErrs := def.Schema.Validate(merged); len(fieldErrs) > 0 {
		for _, fe := range fieldErrs {
			metrics.ValidationFailures.WithLabelValues(strconv.Itoa(step), fe.Field, fe.Code).Inc()
		}
		m.logger.Debug("Step validation failed", map[string]interface{}{
			"step":       step,
			"errorCount": len(fieldErrs),
		})
		return fieldErrs, nil
	}

	next := m.state.FormData
	if err := def.apply(&next, merged); err != nil {
		return nil, fmt.Errorf("submit step %d: %w", step, err)
	}

	from := m.state.CurrentStep
	m.state.FormData = next
	m.state.CurrentStep = min(step+1, models.TotalSteps)
	if m.state.CurrentStep != from {
		kind := "forward"
		if m.state.CurrentStep < from {
			kind = "back"
		}
		recordTransition(from, m.state.CurrentStep, kind)
	}

	m.store.Save(ctx, m.snapshot())
	return nil, nil
}

// BeginSubmission enters the submitting state and returns the record to
// send. It is rejected unless the machine is on the last step and idle.
func (m *Machine) BeginSubmission(ctx context.Context) (models.ApplicationData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsSubmitting {
		return models.ApplicationData{}, errors.NewSubmissionInProgressError()
	}
	if m.state.CurrentStep != models.TotalSteps {
		return models.ApplicationData{}, errors.NewNotOnLastStepError(m.state.CurrentStep)
	}

	m.state.IsSubmitting = true
	m.state.SubmitError = nil
	m.store.Save(ctx, m.snapshot())
	return m.state.FormData, nil
}

// CompleteSubmission ends a submission. Success resets the wizard and clears
// the durable snapshot; failure records the message and leaves the form
// editable.
func (m *Machine) CompleteSubmission(ctx context.Context, outcome models.SubmissionOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsSubmitting {
		m.logger.Warn("Completing a submission that was not begun", map[string]interface{}{
			"success": outcome.Success,
		})
	}

	if outcome.Success {
		from := m.state.CurrentStep
		m.state = models.DefaultWizardState()
		recordTransition(from, 1, "reset")
		m.store.Clear(ctx)
		return
	}

	msg := outcome.Message
	m.state.IsSubmitting = false
	m.state.SubmitError = &msg
	m.store.Save(ctx, m.snapshot())
}

// ApplyNarrative writes text into one situation field. Length rules are
// enforced when step 3 is submitted, not here.
func (m *Machine) ApplyNarrative(ctx context.Context, field models.NarrativeField, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.IsSubmitting {
		return errors.NewSubmissionInProgressError()
	}
	if !m.state.FormData.SituationDescriptions.Set(field, text) {
		return errors.NewInvalidFieldError(string(field))
	}
	m.store.Save(ctx, m.snapshot())
	return nil
}

// Reset discards all progress and the durable snapshot.
func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = models.DefaultWizardState()
	m.store.Clear(ctx)
}

func recordTransition(from, to int, kind string) {
	metrics.StepTransitions.WithLabelValues(strconv.Itoa(from), strconv.Itoa(to), kind).Inc()
}
