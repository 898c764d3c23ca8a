package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// AgentRepository implements the repositories.AgentRepository interface
type AgentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *DB, logger *zap.Logger) repositories.AgentRepository {
	return &AgentRepository{
		db:     db,
		logger: logger,
	}
}

const agentColumns = `id, org_id, name, status, monthly_limit, daily_limit,
	per_transaction_limit, approval_threshold, allowed_merchants,
	blocked_merchants, flag_new_vendors, created_at, updated_at`

// Create creates a new agent
func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (` + agentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		agent.ID,
		agent.OrgID,
		agent.Name,
		agent.Status,
		agent.MonthlyLimit,
		agent.DailyLimit,
		agent.PerTransactionLimit,
		agent.ApprovalThreshold,
		pq.Array(agent.AllowedMerchants),
		pq.Array(agent.BlockedMerchants),
		agent.FlagNewVendors,
		agent.CreatedAt,
		agent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	r.logger.Debug("agent created", zap.String("id", agent.ID.String()))
	return nil
}

// GetByID retrieves an agent by ID
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	agent, err := r.scanAgent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

// GetByOrgID retrieves all agents for an organization
func (r *AgentRepository) GetByOrgID(ctx context.Context, orgID uuid.UUID) ([]*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE org_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]*models.Agent, 0)
	for rows.Next() {
		agent, err := r.scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return agents, nil
}

// Update updates an agent
func (r *AgentRepository) Update(ctx context.Context, agent *models.Agent) error {
	query := `
		UPDATE agents
		SET name = $2, status = $3, monthly_limit = $4, daily_limit = $5,
			per_transaction_limit = $6, approval_threshold = $7,
			allowed_merchants = $8, blocked_merchants = $9,
			flag_new_vendors = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		agent.ID,
		agent.Name,
		agent.Status,
		agent.MonthlyLimit,
		agent.DailyLimit,
		agent.PerTransactionLimit,
		agent.ApprovalThreshold,
		pq.Array(agent.AllowedMerchants),
		pq.Array(agent.BlockedMerchants),
		agent.FlagNewVendors,
		agent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
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

// rowScanner abstracts sql.Row and sql.Rows for shared scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *AgentRepository) scanAgent(row rowScanner) (*models.Agent, error) {
	agent := &models.Agent{}
	var allowed, blocked pq.StringArray

	err := row.Scan(
		&agent.ID,
		&agent.OrgID,
		&agent.Name,
		&agent.Status,
		&agent.MonthlyLimit,
		&agent.DailyLimit,
		&agent.PerTransactionLimit,
		&agent.ApprovalThreshold,
		&allowed,
		&blocked,
		&agent.FlagNewVendors,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	agent.AllowedMerchants = allowed
	agent.BlockedMerchants = blocked
	return agent, nil
}
