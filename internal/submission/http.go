package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonhttp "social-support-wizard/internal/common/http"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"

	"github.com/google/uuid"
)

// HTTPSubmitter posts the application to an intake endpoint. Any 2xx is a
// success; the endpoint may return its own applicationId.
type HTTPSubmitter struct {
	endpoint string
	client   *commonhttp.Client
	logger   logger.Logger
}

func NewHTTPSubmitter(endpoint string, timeout time.Duration, log logger.Logger) *HTTPSubmitter {
	return &HTTPSubmitter{
		endpoint: endpoint,
		client:   commonhttp.NewClient(timeout),
		logger:   log.With(map[string]interface{}{"backend": BackendHTTP}),
	}
}

func (s *HTTPSubmitter) Name() string { return BackendHTTP }

func (s *HTTPSubmitter) Submit(ctx context.Context, data models.ApplicationData) (*models.SubmissionReceipt, error) {
	event := applicationEvent{
		ApplicationID: uuid.New().String(),
		SubmittedAt:   time.Now().UTC().Format(time.RFC3339),
		Application:   data,
	}

	resp, err := s.client.PostJSON(ctx, s.endpoint, map[string]string{
		"Idempotency-Key": event.ApplicationID,
	}, event)
	if err != nil {
		return nil, fmt.Errorf("submission endpoint unreachable: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("submission endpoint returned status %d", resp.StatusCode)
	}

	receipt := &models.SubmissionReceipt{
		ApplicationID: event.ApplicationID,
		Status:        StatusSubmitted,
		SubmittedAt:   time.Now().UTC(),
		Backend:       BackendHTTP,
	}

	var body struct {
		ApplicationID string `json:"applicationId"`
		Status        string `json:"status"`
	}
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &body) == nil {
		if body.ApplicationID != "" {
			receipt.ApplicationID = body.ApplicationID
		}
		if body.Status != "" {
			receipt.Status = body.Status
		}
	}

	s.logger.Info("application posted", map[string]interface{}{
		"applicationId": receipt.ApplicationID,
		"statusCode":    resp.StatusCode,
	})
	return receipt, nil
}
