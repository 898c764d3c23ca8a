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

// PurchaseIntentRepository implements the repositories.PurchaseIntentRepository interface
type PurchaseIntentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPurchaseIntentRepository creates a new purchase intent repository
func NewPurchaseIntentRepository(db *DB, logger *zap.Logger) repositories.PurchaseIntentRepository {
	return &PurchaseIntentRepository{
		db:     db,
		logger: logger,
	}
}

const intentColumns = `id, agent_id, org_id, amount, currency, description,
	merchant_name, merchant_url, project_id, status, rejection_code,
	rejection_reason, metadata, created_at`

// Create persists a new purchase intent
func (r *PurchaseIntentRepository) Create(ctx context.Context, intent *models.PurchaseIntent) error {
	query := `
		INSERT INTO purchase_intents (` + intentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		intent.ID,
		intent.AgentID,
		intent.OrgID,
		intent.Amount,
		intent.Currency,
		intent.Description,
		intent.MerchantName,
		intent.MerchantURL,
		intent.ProjectID,
		intent.Status,
		intent.RejectionCode,
		intent.RejectionReason,
		nullableJSON(intent.Metadata),
		intent.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase intent: %w", err)
	}

	r.logger.Debug("purchase intent created",
		zap.String("id", intent.ID.String()),
		zap.String("status", string(intent.Status)))
	return nil
}

// GetByID retrieves a purchase intent by ID
func (r *PurchaseIntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PurchaseIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM purchase_intents WHERE id = $1`

	intent, err := r.scanIntent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get purchase intent: %w", err)
	}
	return intent, nil
}

// ListByAgent retrieves an agent's purchase intents, most recent first
func (r *PurchaseIntentRepository) ListByAgent(ctx context.Context, agentID uuid.UUID, filter repositories.IntentFilter) ([]*models.PurchaseIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM purchase_intents WHERE agent_id = $1`
	args := []interface{}{agentID}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *filter.Status)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase intents: %w", err)
	}
	defer rows.Close()

	intents := make([]*models.PurchaseIntent, 0)
	for rows.Next() {
		intent, err := r.scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase intent: %w", err)
		}
		intents = append(intents, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase intents: %w", err)
	}

	return intents, nil
}

// UpdateStatus transitions an intent's status
func (r *PurchaseIntentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.IntentStatus, code *models.RejectionCode, reason *string) error {
	query := `
		UPDATE purchase_intents
		SET status = $2, rejection_code = $3, rejection_reason = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, code, reason)
	if err != nil {
		return fmt.Errorf("failed to update purchase intent status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}

	return nil
}

func (r *PurchaseIntentRepository) scanIntent(row rowScanner) (*models.PurchaseIntent, error) {
	intent := &models.PurchaseIntent{}
	var metadata []byte

	err := row.Scan(
		&intent.ID,
		&intent.AgentID,
		&intent.OrgID,
		&intent.Amount,
		&intent.Currency,
		&intent.Description,
		&intent.MerchantName,
		&intent.MerchantURL,
		&intent.ProjectID,
		&intent.Status,
		&intent.RejectionCode,
		&intent.RejectionReason,
		&metadata,
		&intent.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		intent.Metadata = metadata
	}
	return intent, nil
}

// nullableJSON maps empty JSON payloads to SQL NULL
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
