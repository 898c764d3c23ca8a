package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// SpendRepository implements the repositories.SpendRepository interface.
// Spend aggregates are derived from approved purchase intents, so totals stay
// consistent with the intent audit trail without a separate tracking table.
type SpendRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSpendRepository creates a new spend repository
func NewSpendRepository(db *DB, logger *zap.Logger) repositories.SpendRepository {
	return &SpendRepository{
		db:     db,
		logger: logger,
	}
}

// GetAgentSpend returns the agent's total approved spend for the period
func (r *SpendRepository) GetAgentSpend(ctx context.Context, agentID uuid.UUID, period models.SpendPeriod) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM purchase_intents
		WHERE agent_id = $1
		  AND status = 'approved'
		  AND created_at >= date_trunc($2, CURRENT_TIMESTAMP)
	`

	var total float64
	err := r.db.QueryRowContext(ctx, query, agentID, truncUnit(period)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to query agent spend: %w", err)
	}
	return total, nil
}

// GetOrgSpend returns the organization's total approved spend for the period
func (r *SpendRepository) GetOrgSpend(ctx context.Context, orgID uuid.UUID, period models.SpendPeriod) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM purchase_intents
		WHERE org_id = $1
		  AND status = 'approved'
		  AND created_at >= date_trunc($2, CURRENT_TIMESTAMP)
	`

	var total float64
	err := r.db.QueryRowContext(ctx, query, orgID, truncUnit(period)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to query organization spend: %w", err)
	}
	return total, nil
}

func truncUnit(period models.SpendPeriod) string {
	if period == models.PeriodMonthly {
		return "month"
	}
	return "day"
}
