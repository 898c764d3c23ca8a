package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// OrganizationRepository implements the repositories.OrganizationRepository interface
type OrganizationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB, logger *zap.Logger) repositories.OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger,
	}
}

const orgColumns = `id, name, slug, monthly_budget, alert_threshold, guardrails, created_at, updated_at`

// Create creates a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	guardrails, err := marshalGuardrails(org.Guardrails)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO organizations (` + orgColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.MonthlyBudget,
		org.AlertThreshold,
		guardrails,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	r.logger.Debug("organization created", zap.String("id", org.ID.String()))
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	return r.scanOrganization(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves an organization by slug
func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE slug = $1`
	return r.scanOrganization(r.db.QueryRowContext(ctx, query, slug))
}

// Update updates an organization
func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	guardrails, err := marshalGuardrails(org.Guardrails)
	if err != nil {
		return err
	}

	query := `
		UPDATE organizations
		SET name = $2, slug = $3, monthly_budget = $4, alert_threshold = $5,
			guardrails = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.MonthlyBudget,
		org.AlertThreshold,
		guardrails,
		org.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
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

func (r *OrganizationRepository) scanOrganization(row rowScanner) (*models.Organization, error) {
	org := &models.Organization{}
	var guardrails []byte

	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.MonthlyBudget,
		&org.AlertThreshold,
		&guardrails,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if len(guardrails) > 0 {
		g := &models.Guardrails{}
		if err := json.Unmarshal(guardrails, g); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guardrails: %w", err)
		}
		org.Guardrails = g
	}

	return org, nil
}

func marshalGuardrails(g *models.Guardrails) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guardrails: %w", err)
	}
	return raw, nil
}
