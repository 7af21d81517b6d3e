package submission

import (
	"context"
	"strconv"
	"time"

	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"

	"github.com/google/uuid"
)

// ProcessStarter starts a BPMN process instance. camunda.Client implements it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// CamundaSubmitter hands the application to a review process.
type CamundaSubmitter struct {
	starter   ProcessStarter
	processID string
	logger    logger.Logger
}

func NewCamundaSubmitter(starter ProcessStarter, processID string, log logger.Logger) *CamundaSubmitter {
	return &CamundaSubmitter{
		starter:   starter,
		processID: processID,
		logger:    log.With(map[string]interface{}{"backend": BackendCamunda, "processId": processID}),
	}
}

func (s *CamundaSubmitter) Name() string { return BackendCamunda }

func (s *CamundaSubmitter) Submit(ctx context.Context, data models.ApplicationData) (*models.SubmissionReceipt, error) {
	submittedAt := time.Now().UTC()
	event := applicationEvent{
		ApplicationID: uuid.New().String(),
		SubmittedAt:   submittedAt.Format(time.RFC3339),
		Application:   data,
	}

	instanceKey, err := s.starter.StartProcess(ctx, s.processID, event)
	if err != nil {
		return nil, err
	}

	s.logger.Info("review process started", map[string]interface{}{
		"applicationId":      event.ApplicationID,
		"processInstanceKey": strconv.FormatInt(instanceKey, 10),
	})
	return &models.SubmissionReceipt{
		ApplicationID: event.ApplicationID,
		Status:        StatusSubmitted,
		SubmittedAt:   submittedAt,
		Backend:       BackendCamunda,
	}, nil
}
