package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/repositories"
)

// VendorRepository implements the repositories.VendorRepository interface.
// Merchant names are stored lowercased so lookups are case-insensitive.
type VendorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *DB, logger *zap.Logger) repositories.VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// IsNewVendor returns true when the merchant was never recorded for the org
func (r *VendorRepository) IsNewVendor(ctx context.Context, orgID uuid.UUID, merchantName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM org_vendors
			WHERE org_id = $1 AND merchant_name = $2
		)
	`

	var known bool
	err := r.db.QueryRowContext(ctx, query, orgID, strings.ToLower(merchantName)).Scan(&known)
	if err != nil {
		return false, fmt.Errorf("failed to query vendor history: %w", err)
	}
	return !known, nil
}

// RecordMerchant marks the merchant as known to the organization
func (r *VendorRepository) RecordMerchant(ctx context.Context, orgID uuid.UUID, merchantName string) error {
	query := `
		INSERT INTO org_vendors (org_id, merchant_name)
		VALUES ($1, $2)
		ON CONFLICT (org_id, merchant_name) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, orgID, strings.ToLower(merchantName))
	if err != nil {
		return fmt.Errorf("failed to record merchant: %w", err)
	}

	r.logger.Debug("merchant recorded",
		zap.String("org_id", orgID.String()),
		zap.String("merchant", merchantName))
	return nil
}
