package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/models"

	"github.com/google/uuid"
)

var ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")

// PostgresSubmitter stores each application as a row in applications.
type PostgresSubmitter struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSubmitter(db *sql.DB, log logger.Logger) *PostgresSubmitter {
	return &PostgresSubmitter{
		db:     db,
		logger: log.With(map[string]interface{}{"backend": BackendPostgres}),
	}
}

func (s *PostgresSubmitter) Name() string { return BackendPostgres }

func (s *PostgresSubmitter) Submit(ctx context.Context, data models.ApplicationData) (*models.SubmissionReceipt, error) {
	appID := uuid.New().String()
	createdAt := time.Now().UTC()

	applicationJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal application data: %v", ErrDatabaseInsertFailed, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (
			id, national_id, applicant_name, email,
			application_data, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		appID,
		data.PersonalInfo.NationalID,
		data.PersonalInfo.Name,
		data.PersonalInfo.Email,
		applicationJSON,
		StatusSubmitted,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// The audit row is best effort.
	auditDetailsJSON, _ := json.Marshal(map[string]interface{}{
		"employmentStatus": data.FamilyFinancialInfo.EmploymentStatus,
		"dependents":       data.FamilyFinancialInfo.Dependents,
		"monthlyIncome":    data.FamilyFinancialInfo.MonthlyIncome,
	})
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_submitted",
		"application",
		appID,
		auditDetailsJSON,
		createdAt,
	)
	if err != nil {
		s.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err.Error(),
			"applicationId": appID,
		})
	}

	s.logger.Info("application record created", map[string]interface{}{
		"applicationId": appID,
	})
	return &models.SubmissionReceipt{
		ApplicationID: appID,
		Status:        StatusSubmitted,
		SubmittedAt:   createdAt,
		Backend:       BackendPostgres,
	}, nil
}
