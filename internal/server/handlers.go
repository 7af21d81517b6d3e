package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	apperrors "social-support-wizard/internal/common/errors"
	"social-support-wizard/internal/common/validation"
	"social-support-wizard/internal/models"
	"social-support-wizard/internal/suggestion"
)

type validationResponse struct {
	Code    apperrors.ErrorCode     `json:"code"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors"`
	State   models.WizardState      `json:"state"`
}

type suggestionResponse struct {
	models.AIRequestState
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request, sess *Session, _ string) {
	writeJSON(w, http.StatusOK, sess.Machine.State())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sess *Session, _ string) {
	sess.Workflow.Discard()
	sess.Machine.Reset(r.Context())
	writeJSON(w, http.StatusOK, sess.Machine.State())
}

func stepParam(r *http.Request) (int, error) {
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		return 0, apperrors.NewBadRequestError("step must be an integer")
	}
	return step, nil
}

func (s *Server) handleSubmitStep(w http.ResponseWriter, r *http.Request, sess *Session, locale string) {
	step, err := stepParam(r)
	if err != nil {
		s.errors.Write(w, err)
		return
	}
	data := map[string]interface{}{}
	if err := decodeBody(w, r, &data); err != nil {
		s.errors.Write(w, err)
		return
	}

	fieldErrs, err := sess.Machine.SubmitStep(r.Context(), step, data)
	if err != nil {
		s.errors.Write(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		s.writeValidation(w, locale, step, fieldErrs, sess.Machine.State())
		return
	}
	writeJSON(w, http.StatusOK, sess.Machine.State())
}

func (s *Server) writeValidation(w http.ResponseWriter, locale string, step int, fieldErrs []validation.FieldError, state models.WizardState) {
	stdErr := apperrors.NewStepValidationFailedError(step, len(fieldErrs))
	writeJSON(w, apperrors.HTTPStatus(stdErr.Code), validationResponse{
		Code:    stdErr.Code,
		Message: stdErr.Message,
		Errors:  s.deps.Translator.LocalizeErrors(locale, fieldErrs),
		State:   state,
	})
}

func (s *Server) handleGoToStep(w http.ResponseWriter, r *http.Request, sess *Session, _ string) {
	step, err := stepParam(r)
	if err != nil {
		s.errors.Write(w, err)
		return
	}
	if err := sess.Machine.GoToStep(r.Context(), step); err != nil {
		s.errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Machine.State())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, sess *Session, locale string) {
	data := map[string]interface{}{}
	if err := decodeBody(w, r, &data); err != nil {
		s.errors.Write(w, err)
		return
	}

	result, err := s.deps.Pipeline.Submit(r.Context(), sess.Machine, locale, data)
	if err != nil {
		s.errors.Write(w, err)
		return
	}
	if len(result.FieldErrors) > 0 {
		stdErr := apperrors.NewStepValidationFailedError(models.TotalSteps, len(result.FieldErrors))
		writeJSON(w, apperrors.HTTPStatus(stdErr.Code), validationResponse{
			Code:    stdErr.Code,
			Message: stdErr.Message,
			Errors:  result.FieldErrors,
			State:   result.State,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSuggestion(w http.ResponseWriter, _ *http.Request, sess *Session, _ string) {
	writeJSON(w, http.StatusOK, sess.Workflow.State())
}

func (s *Server) handleRequestSuggestion(w http.ResponseWriter, r *http.Request, sess *Session, locale string) {
	field, ok := models.ParseNarrativeField(r.PathValue("field"))
	if !ok {
		s.errors.Write(w, apperrors.NewInvalidFieldError(r.PathValue("field")))
		return
	}

	var body struct {
		ExistingText *string `json:"existingText"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.errors.Write(w, err)
		return
	}
	existing := sess.Machine.State().FormData.SituationDescriptions.Get(field)
	if body.ExistingText != nil {
		existing = *body.ExistingText
	}

	if !s.limiter.Allow(r.Context(), sess.ID) {
		s.errors.Write(w, apperrors.NewRateLimitedError(sess.ID))
		return
	}

	var prompter suggestion.Prompter
	if key := r.Header.Get(HeaderAIKey); key != "" {
		prompter = suggestion.SuppliedKey(key)
	}

	state, err := sess.Workflow.Request(r.Context(), field, existing, prompter)
	if err != nil {
		s.writeSuggestionError(w, err, state)
		return
	}

	resp := suggestionResponse{AIRequestState: state}
	if state.Status == models.SuggestionError {
		resp.Message = s.deps.Translator.T(locale, "situation.error")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request, sess *Session, _ string) {
	state, err := sess.Workflow.Accept(r.Context())
	if err != nil {
		s.writeSuggestionError(w, err, state)
		return
	}
	writeJSON(w, http.StatusOK, sess.Machine.State())
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, sess *Session, _ string) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.errors.Write(w, err)
		return
	}
	state, err := sess.Workflow.EditAndApply(r.Context(), body.Text)
	if err != nil {
		s.writeSuggestionError(w, err, state)
		return
	}
	writeJSON(w, http.StatusOK, sess.Machine.State())
}

func (s *Server) handleDiscard(w http.ResponseWriter, _ *http.Request, sess *Session, _ string) {
	writeJSON(w, http.StatusOK, sess.Workflow.Discard())
}

// writeSuggestionError maps workflow rejections onto API errors.
func (s *Server) writeSuggestionError(w http.ResponseWriter, err error, state models.AIRequestState) {
	switch {
	case errors.Is(err, suggestion.ErrUnknownField):
		s.errors.Write(w, apperrors.NewInvalidFieldError(string(state.TargetField)))
	case errors.Is(err, suggestion.ErrRequestInFlight):
		s.errors.Write(w, apperrors.NewSuggestionInFlightError(string(state.TargetField)))
	case errors.Is(err, suggestion.ErrCredentialRequired):
		s.errors.Write(w, apperrors.NewCredentialRequiredError())
	case errors.Is(err, suggestion.ErrNothingToApply):
		s.errors.Write(w, apperrors.NewNoSuggestionError(string(state.Status)))
	default:
		s.errors.Write(w, err)
	}
}
