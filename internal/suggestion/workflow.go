package suggestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "social-support-wizard/internal/common/errors"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/common/metrics"
	"social-support-wizard/internal/models"
)

var (
	ErrRequestInFlight = errors.New("a suggestion request is already loading")
	ErrNothingToApply  = errors.New("no suggestion is ready")
)

// NarrativeWriter receives accepted text. wizard.Machine implements it.
type NarrativeWriter interface {
	ApplyNarrative(ctx context.Context, field models.NarrativeField, text string) error
}

// Workflow runs one suggestion interaction at a time for a session:
// idle -> loading -> ready | error, then back to idle on accept, edit or
// discard.
type Workflow struct {
	mu      sync.Mutex
	state   models.AIRequestState
	gen     uint64
	cancel  context.CancelFunc
	service Service
	creds   CredentialProvider
	writer  NarrativeWriter
	logger  logger.Logger
}

func NewWorkflow(service Service, creds CredentialProvider, writer NarrativeWriter, log logger.Logger) *Workflow {
	return &Workflow{
		state:   idleState(),
		service: service,
		creds:   creds,
		writer:  writer,
		logger:  log,
	}
}

func idleState() models.AIRequestState {
	return models.AIRequestState{Status: models.SuggestionIdle}
}

// State returns the current interaction state.
func (w *Workflow) State() models.AIRequestState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Request obtains a credential, calls the service and blocks until the
// interaction is ready or failed. A call made while another is loading is
// ignored with ErrRequestInFlight. Service failures end in the error state
// and are not returned as errors.
func (w *Workflow) Request(ctx context.Context, field models.NarrativeField, existingText string, prompter Prompter) (models.AIRequestState, error) {
	if _, ok := prompts[field]; !ok {
		return w.State(), fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	w.mu.Lock()
	if w.state.Status == models.SuggestionLoading {
		current := w.state
		w.mu.Unlock()
		w.logger.Debug("Ignoring suggestion request while loading", map[string]interface{}{
			"field":    string(field),
			"inFlight": string(current.TargetField),
		})
		return current, ErrRequestInFlight
	}
	w.mu.Unlock()

	apiKey, err := w.creds.APIKey(ctx, prompter)
	if err != nil {
		return w.State(), err
	}

	w.mu.Lock()
	if w.state.Status == models.SuggestionLoading {
		current := w.state
		w.mu.Unlock()
		return current, ErrRequestInFlight
	}
	callCtx, cancel := context.WithCancel(ctx)
	w.gen++
	gen := w.gen
	w.cancel = cancel
	w.state = models.AIRequestState{TargetField: field, Status: models.SuggestionLoading}
	w.mu.Unlock()
	defer cancel()

	metrics.Suggestions.WithLabelValues(string(field), string(models.SuggestionLoading)).Inc()
	start := time.Now()
	text, err := w.service.Generate(callCtx, apiKey, field, existingText)
	metrics.SuggestionDuration.WithLabelValues(string(field)).Observe(time.Since(start).Seconds())

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		// Discarded while loading.
		return w.state, nil
	}
	w.cancel = nil

	if err != nil {
		stdErr := apperrors.NewSuggestionFailedError(err)
		if errors.Is(err, ErrTimeout) {
			stdErr = apperrors.NewSuggestionTimeoutError(err)
		}
		w.logger.Warn("Suggestion failed", map[string]interface{}{
			"field":     string(field),
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		w.state = models.AIRequestState{
			TargetField:  field,
			Status:       models.SuggestionError,
			ErrorMessage: err.Error(),
		}
		metrics.Suggestions.WithLabelValues(string(field), string(models.SuggestionError)).Inc()
		return w.state, nil
	}

	w.state = models.AIRequestState{
		TargetField:    field,
		Status:         models.SuggestionReady,
		SuggestionText: text,
	}
	metrics.Suggestions.WithLabelValues(string(field), string(models.SuggestionReady)).Inc()
	return w.state, nil
}

// Accept writes the suggestion verbatim into its field.
func (w *Workflow) Accept(ctx context.Context) (models.AIRequestState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Status != models.SuggestionReady {
		return w.state, ErrNothingToApply
	}
	return w.apply(ctx, w.state.SuggestionText, "accepted")
}

// EditAndApply writes the caller's edited text instead of the suggestion.
func (w *Workflow) EditAndApply(ctx context.Context, text string) (models.AIRequestState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Status != models.SuggestionReady {
		return w.state, ErrNothingToApply
	}
	return w.apply(ctx, text, "edited")
}

func (w *Workflow) apply(ctx context.Context, text, outcome string) (models.AIRequestState, error) {
	field := w.state.TargetField
	if err := w.writer.ApplyNarrative(ctx, field, text); err != nil {
		return w.state, err
	}
	metrics.Suggestions.WithLabelValues(string(field), outcome).Inc()
	w.state = idleState()
	return w.state, nil
}

// Discard closes the interaction without touching the form. Discarding a
// loading request abandons it.
func (w *Workflow) Discard() models.AIRequestState {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Status == models.SuggestionLoading {
		w.gen++
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
	}
	if w.state.Status != models.SuggestionIdle {
		metrics.Suggestions.WithLabelValues(string(w.state.TargetField), "discarded").Inc()
	}
	w.state = idleState()
	return w.state
}
