package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// ApprovalRepository implements the repositories.ApprovalRepository interface
type ApprovalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *DB, logger *zap.Logger) repositories.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

const approvalColumns = `id, purchase_intent_id, agent_id, org_id, reason,
	reason_detail, status, reviewed_by, reviewed_at, created_at`

// Create persists a new pending approval
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.PendingApproval) error {
	query := `
		INSERT INTO pending_approvals (` + approvalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		approval.ID,
		approval.PurchaseIntentID,
		approval.AgentID,
		approval.OrgID,
		approval.Reason,
		approval.ReasonDetail,
		approval.Status,
		approval.ReviewedBy,
		approval.ReviewedAt,
		approval.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending approval: %w", err)
	}

	r.logger.Debug("pending approval created",
		zap.String("id", approval.ID.String()),
		zap.String("reason", string(approval.Reason)))
	return nil
}

// GetByIntentID retrieves the approval for a purchase intent
func (r *ApprovalRepository) GetByIntentID(ctx context.Context, intentID uuid.UUID) (*models.PendingApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM pending_approvals WHERE purchase_intent_id = $1`

	approval, err := r.scanApproval(r.db.QueryRowContext(ctx, query, intentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending approval: %w", err)
	}
	return approval, nil
}

// ListPending retrieves an organization's open approvals, oldest first
func (r *ApprovalRepository) ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.PendingApproval, error) {
	query := `
		SELECT ` + approvalColumns + `
		FROM pending_approvals
		WHERE org_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending approvals: %w", err)
	}
	defer rows.Close()

	approvals := make([]*models.PendingApproval, 0)
	for rows.Next() {
		approval, err := r.scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending approvals: %w", err)
	}

	return approvals, nil
}

func (r *ApprovalRepository) scanApproval(row rowScanner) (*models.PendingApproval, error) {
	approval := &models.PendingApproval{}
	err := row.Scan(
		&approval.ID,
		&approval.PurchaseIntentID,
		&approval.AgentID,
		&approval.OrgID,
		&approval.Reason,
		&approval.ReasonDetail,
		&approval.Status,
		&approval.ReviewedBy,
		&approval.ReviewedAt,
		&approval.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return approval, nil
}
