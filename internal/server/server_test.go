package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"social-support-wizard/internal/common/i18n"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"
	"social-support-wizard/internal/persistence"
	"social-support-wizard/internal/submission"
	"social-support-wizard/internal/suggestion"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSuggestions struct {
	mu     sync.Mutex
	text   string
	err    error
	apiKey string
}

func (f *fakeSuggestions) Generate(_ context.Context, apiKey string, _ models.NarrativeField, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKey = apiKey
	return f.text, f.err
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSubmitter) Name() string { return "fake" }

func (f *fakeSubmitter) Submit(context.Context, models.ApplicationData) (*models.SubmissionReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.SubmissionReceipt{ApplicationID: "app-1", Status: "submitted", SubmittedAt: time.Now(), Backend: "fake"}, nil
}

type testEnv struct {
	server      *Server
	handler     http.Handler
	store       *persistence.MemoryStore
	suggestions *fakeSuggestions
	submitter   *fakeSubmitter
}

func newTestEnv(t *testing.T, store *persistence.MemoryStore) *testEnv {
	t.Helper()
	if store == nil {
		store = persistence.NewMemoryStore()
	}
	log := logger.NewTestLogger(t)
	translator := i18n.New("en")
	suggestions := &fakeSuggestions{text: "I was laid off in March after the factory closed and have no income since."}
	submitter := &fakeSubmitter{}

	s := New(Deps{
		Config: &Config{Address: ":0", SessionIdleTimeout: time.Hour, SuggestionRate: 100, SuggestionBurst: 100},
		Store:  store,
		Persistence: &persistence.Config{
			SnapshotKey:   "socialSupportForm",
			CredentialKey: "openai_api_key",
			Policy:        persistence.PolicyProgress,
		},
		Suggestions: suggestions,
		Credentials: suggestion.NewStoreCredentials("", store, "openai_api_key", log),
		Pipeline:    submission.NewPipeline(&submission.Config{Timeout: time.Second}, submitter, nil, translator, nil, log),
		Translator:  translator,
		Checks: map[string]HealthCheck{
			"store": func(context.Context) error { return nil },
		},
		Logger: log,
	})
	return &testEnv{server: s, handler: s.Handler(), store: store, suggestions: suggestions, submitter: submitter}
}

func (e *testEnv) do(t *testing.T, method, path, session string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(HeaderSessionID, session)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func personalInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":        "Amina Khalid",
		"nationalId":  "784-1990-1234567-1",
		"dateOfBirth": "1990-04-02",
		"gender":      "female",
		"address":     "12 Palm Street",
		"city":        "Dubai",
		"state":       "Dubai",
		"country":     "UAE",
		"phone":       "+971500000000",
		"email":       "amina@example.ae",
	}
}

func familyFinancial() map[string]interface{} {
	return map[string]interface{}{
		"maritalStatus":    "married",
		"dependents":       2,
		"employmentStatus": "unemployed",
		"monthlyIncome":    1500,
		"housingStatus":    "rented",
	}
}

func situation() map[string]interface{} {
	text := strings.Repeat("My hours were cut and rent is now overdue. ", 2)
	return map[string]interface{}{
		"currentFinancialSituation": text,
		"employmentCircumstances":   text,
		"reasonForApplying":         text,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ==========================
// Operational endpoints
// ==========================

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestReady(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ready", "", nil).Code)

	env.server.deps.Checks["postgres"] = func(context.Context) error { return errors.New("connection refused") }
	rec := env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "connection refused", decode[map[string]string](t, rec)["postgres"])
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wizard_active_sessions")
}

// ==========================
// Sessions
// ==========================

func TestSession_IssuedWhenMissing(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/wizard", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(HeaderSessionID))
	assert.NoError(t, err)
	assert.Equal(t, models.DefaultWizardState(), decode[models.WizardState](t, rec))
}

func TestSession_RejectsMalformedID(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/wizard", "not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode[errorBody](t, rec).Code)
}

func TestSession_RestoredFromStore(t *testing.T) {
	store := persistence.NewMemoryStore()
	session := uuid.New().String()

	first := newTestEnv(t, store)
	require.Equal(t, http.StatusOK, first.do(t, http.MethodPost, "/api/wizard/steps/1", session, personalInfo()).Code)

	second := newTestEnv(t, store)
	state := decode[models.WizardState](t, second.do(t, http.MethodGet, "/api/wizard", session, nil))
	assert.Equal(t, 2, state.CurrentStep)
	assert.Equal(t, "Amina Khalid", state.FormData.PersonalInfo.Name)
}

// ==========================
// Steps and submission
// ==========================

func TestSubmitStep_ValidationErrorsAreLocalized(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()

	rec := env.do(t, http.MethodPost, "/api/wizard/steps/1", session, map[string]interface{}{"email": "nope"}, "Accept-Language", "ar-AE,ar;q=0.9")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ar", rec.Header().Get("Content-Language"))
	body := decode[validationResponse](t, rec)
	assert.Equal(t, "STEP_VALIDATION_FAILED", string(body.Code))
	assert.Equal(t, 1, body.State.CurrentStep)

	byField := map[string]string{}
	for _, fe := range body.Errors {
		byField[fe.Field] = fe.Message
	}
	assert.Contains(t, byField, "name")
	assert.Contains(t, byField, "email")
	assert.NotEqual(t, "This field is required", byField["name"])
}

func TestSubmitStep_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"step ahead of current", "/api/wizard/steps/3", http.StatusConflict, "STEP_NOT_REACHED"},
		{"out of range", "/api/wizard/steps/9", http.StatusBadRequest, "STEP_OUT_OF_RANGE"},
		{"non numeric", "/api/wizard/steps/two", http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, tt.path, uuid.New().String(), map[string]interface{}{})
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decode[errorBody](t, rec).Code)
		})
	}
}

func TestFullFlow_SubmitResetsWizard(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/wizard/steps/1", session, personalInfo()).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/wizard/steps/2", session, familyFinancial()).Code)

	rec := env.do(t, http.MethodPost, "/api/wizard/steps/1/goto", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.WizardState](t, rec).CurrentStep)

	// Going back keeps data; resubmitting moves forward again.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/wizard/steps/1", session, nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/wizard/steps/2", session, nil).Code)

	_, err := env.store.Get(context.Background(), "socialSupportForm:"+session)
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/wizard/submit", session, situation())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[submission.Result](t, rec)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "app-1", result.Receipt.ApplicationID)
	assert.Equal(t, models.DefaultWizardState(), result.State)
	assert.Equal(t, 1, env.submitter.calls)

	_, err = env.store.Get(context.Background(), "socialSupportForm:"+session)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSubmit_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()
	env.do(t, http.MethodPost, "/api/wizard/steps/1", session, personalInfo())
	env.do(t, http.MethodPost, "/api/wizard/steps/2", session, familyFinancial())

	data := situation()
	data["employmentCircumstances"] = "short"
	rec := env.do(t, http.MethodPost, "/api/wizard/submit", session, data)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[validationResponse](t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "employmentCircumstances", body.Errors[0].Field)
	assert.Equal(t, "Minimum length is 50 characters", body.Errors[0].Message)
	assert.Zero(t, env.submitter.calls)
}

func TestSubmit_BoundaryFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.submitter.err = errors.New("status 503")
	session := uuid.New().String()
	env.do(t, http.MethodPost, "/api/wizard/steps/1", session, personalInfo())
	env.do(t, http.MethodPost, "/api/wizard/steps/2", session, familyFinancial())

	rec := env.do(t, http.MethodPost, "/api/wizard/submit", session, situation())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "SUBMISSION_FAILED", decode[errorBody](t, rec).Code)

	state := decode[models.WizardState](t, env.do(t, http.MethodGet, "/api/wizard", session, nil))
	require.NotNil(t, state.SubmitError)
	assert.Equal(t, "An error occurred while submitting your application", *state.SubmitError)
	assert.False(t, state.IsSubmitting)
	assert.Equal(t, 3, state.CurrentStep)
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()
	env.do(t, http.MethodPost, "/api/wizard/steps/1", session, personalInfo())

	rec := env.do(t, http.MethodPost, "/api/wizard/reset", session, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultWizardState(), decode[models.WizardState](t, rec))
}

// ==========================
// Suggestions
// ==========================

func TestSuggestion_CredentialRequired(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/wizard/suggestions/reasonForApplying", uuid.New().String(), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "CREDENTIAL_REQUIRED", decode[errorBody](t, rec).Code)
}

func TestSuggestion_RequestAndAccept(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()

	rec := env.do(t, http.MethodPost, "/api/wizard/suggestions/reasonForApplying", session,
		map[string]string{"existingText": "I lost my job"}, HeaderAIKey, "sk-user")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[models.AIRequestState](t, rec)
	assert.Equal(t, models.SuggestionReady, state.Status)
	assert.Equal(t, env.suggestions.text, state.SuggestionText)
	assert.Equal(t, "sk-user", env.suggestions.apiKey)

	saved, err := env.store.Get(context.Background(), "openai_api_key:"+session)
	require.NoError(t, err)
	assert.Equal(t, "sk-user", saved)

	rec = env.do(t, http.MethodPost, "/api/wizard/suggestions/accept", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wizardState := decode[models.WizardState](t, rec)
	assert.Equal(t, env.suggestions.text, wizardState.FormData.SituationDescriptions.ReasonForApplying)

	idle := decode[models.AIRequestState](t, env.do(t, http.MethodGet, "/api/wizard/suggestions", session, nil))
	assert.Equal(t, models.SuggestionIdle, idle.Status)
}

func TestSuggestion_KeysAreScopedPerSession(t *testing.T) {
	env := newTestEnv(t, nil)
	sessionA, sessionB, sessionC := uuid.New().String(), uuid.New().String(), uuid.New().String()
	path := "/api/wizard/suggestions/reasonForApplying"

	rec := env.do(t, http.MethodPost, path, sessionA, nil, HeaderAIKey, "sk-applicant-a")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sk-applicant-a", env.suggestions.apiKey)

	// Another session without a key of its own is not served with A's key.
	rec = env.do(t, http.MethodPost, path, sessionB, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "CREDENTIAL_REQUIRED", decode[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, path, sessionC, nil, HeaderAIKey, "sk-applicant-c")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sk-applicant-c", env.suggestions.apiKey)

	// A keeps its stored key and can replace it explicitly.
	rec = env.do(t, http.MethodPost, path, sessionA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sk-applicant-a", env.suggestions.apiKey)

	rec = env.do(t, http.MethodPost, path, sessionA, nil, HeaderAIKey, "sk-applicant-a2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sk-applicant-a2", env.suggestions.apiKey)

	saved, err := env.store.Get(context.Background(), "openai_api_key:"+sessionA)
	require.NoError(t, err)
	assert.Equal(t, "sk-applicant-a2", saved)
	_, err = env.store.Get(context.Background(), "openai_api_key")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSuggestion_EditAndDiscard(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()

	env.do(t, http.MethodPost, "/api/wizard/suggestions/employmentCircumstances", session, nil, HeaderAIKey, "sk")
	rec := env.do(t, http.MethodPost, "/api/wizard/suggestions/edit", session, map[string]string{"text": "edited text"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited text", decode[models.WizardState](t, rec).FormData.SituationDescriptions.EmploymentCircumstances)

	env.do(t, http.MethodPost, "/api/wizard/suggestions/currentFinancialSituation", session, nil, HeaderAIKey, "sk")
	rec = env.do(t, http.MethodPost, "/api/wizard/suggestions/discard", session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SuggestionIdle, decode[models.AIRequestState](t, rec).Status)

	state := decode[models.WizardState](t, env.do(t, http.MethodGet, "/api/wizard", session, nil))
	assert.Empty(t, state.FormData.SituationDescriptions.CurrentFinancialSituation)
}

func TestSuggestion_ServiceErrorIsState(t *testing.T) {
	env := newTestEnv(t, nil)
	env.suggestions.err = errors.New("OpenAI API error: 500")

	rec := env.do(t, http.MethodPost, "/api/wizard/suggestions/reasonForApplying", uuid.New().String(), nil, HeaderAIKey, "sk")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[suggestionResponse](t, rec)
	assert.Equal(t, models.SuggestionError, body.Status)
	assert.Equal(t, "OpenAI API error: 500", body.ErrorMessage)
	assert.NotEmpty(t, body.Message)
}

func TestSuggestion_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	session := uuid.New().String()

	rec := env.do(t, http.MethodPost, "/api/wizard/suggestions/email", session, nil, HeaderAIKey, "sk")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_FIELD", decode[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/wizard/suggestions/accept", session, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_SUGGESTION", decode[errorBody](t, rec).Code)
}

func TestSuggestion_RateLimited(t *testing.T) {
	env := newTestEnv(t, nil)
	env.server.limiter = newLimiter(1, 1)
	session := uuid.New().String()

	first := env.do(t, http.MethodPost, "/api/wizard/suggestions/reasonForApplying", session, nil, HeaderAIKey, "sk")
	require.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodPost, "/api/wizard/suggestions/reasonForApplying", session, nil, HeaderAIKey, "sk")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "SUGGESTION_RATE_LIMITED", decode[errorBody](t, second).Code)
}
