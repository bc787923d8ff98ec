package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/port"
	"github.com/clearhr/claimflow/internal/domain/entity"
)

// FeedbackRepository implements port.FeedbackRepository
type FeedbackRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *sql.DB, logger *zap.Logger) port.FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one 360 feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, feedback *entity.Feedback360) error {
	query := `
		INSERT INTO feedback_360 (
			id, tenant_id, appraisal_id, reviewer_id,
			relationship, rating, comments, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		feedback.ID, feedback.TenantID, feedback.AppraisalID, feedback.ReviewerID,
		feedback.Relationship, feedback.Rating, feedback.Comments, feedback.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create feedback", zap.Error(err))
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// ListByAppraisal retrieves all feedback entries for an appraisal
func (r *FeedbackRepository) ListByAppraisal(ctx context.Context, tenantID, appraisalID string) ([]*entity.Feedback360, error) {
	query := `
		SELECT id, tenant_id, appraisal_id, reviewer_id,
			relationship, rating, comments, created_at
		FROM feedback_360
		WHERE tenant_id = ? AND appraisal_id = ?
		ORDER BY created_at
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tenantID, appraisalID)
	if err != nil {
		r.logger.Error("Failed to list feedback", zap.Error(err))
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []*entity.Feedback360
	for rows.Next() {
		var feedback entity.Feedback360
		var comments sql.NullString
		err := rows.Scan(
			&feedback.ID, &feedback.TenantID, &feedback.AppraisalID, &feedback.ReviewerID,
			&feedback.Relationship, &feedback.Rating, &comments, &feedback.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback.Comments = comments.String
		entries = append(entries, &feedback)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.FeedbackRepository = (*FeedbackRepository)(nil)
