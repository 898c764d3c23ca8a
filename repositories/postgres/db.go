package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/config"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// NewStore opens a connection pool and wires all PostgreSQL repositories
func NewStore(cfg config.DatabaseConfig, logger *zap.Logger) (*repositories.Store, *DB, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := &repositories.Store{
		Agents:        NewAgentRepository(db, logger),
		Organizations: NewOrganizationRepository(db, logger),
		Spend:         NewSpendRepository(db, logger),
		Vendors:       NewVendorRepository(db, logger),
		Intents:       NewPurchaseIntentRepository(db, logger),
		Approvals:     NewApprovalRepository(db, logger),
		AuditLogs:     NewAuditRepository(db, logger),
	}
	return store, db, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Organizations table
		CREATE TABLE IF NOT EXISTS organizations (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) NOT NULL UNIQUE,
			monthly_budget NUMERIC(12,2),
			alert_threshold NUMERIC(4,3),
			guardrails JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Agents table
		CREATE TABLE IF NOT EXISTS agents (
			id UUID PRIMARY KEY,
			org_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			monthly_limit NUMERIC(12,2),
			daily_limit NUMERIC(12,2),
			per_transaction_limit NUMERIC(12,2),
			approval_threshold NUMERIC(12,2),
			allowed_merchants TEXT[],
			blocked_merchants TEXT[],
			flag_new_vendors BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Purchase intents table
		CREATE TABLE IF NOT EXISTS purchase_intents (
			id UUID PRIMARY KEY,
			agent_id UUID NOT NULL,
			org_id UUID NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			currency VARCHAR(10) NOT NULL,
			description TEXT NOT NULL,
			merchant_name VARCHAR(255) NOT NULL,
			merchant_url TEXT,
			project_id VARCHAR(100),
			status VARCHAR(20) NOT NULL,
			rejection_code VARCHAR(40),
			rejection_reason TEXT,
			metadata JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_intents_agent_created
			ON purchase_intents(agent_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_intents_org_status
			ON purchase_intents(org_id, status);

		-- Pending approvals table
		CREATE TABLE IF NOT EXISTS pending_approvals (
			id UUID PRIMARY KEY,
			purchase_intent_id UUID NOT NULL REFERENCES purchase_intents(id) ON DELETE CASCADE,
			agent_id UUID NOT NULL,
			org_id UUID NOT NULL,
			reason VARCHAR(30) NOT NULL,
			reason_detail TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			reviewed_by VARCHAR(255),
			reviewed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_approvals_org_status
			ON pending_approvals(org_id, status);

		-- Known vendors per organization
		CREATE TABLE IF NOT EXISTS org_vendors (
			org_id UUID NOT NULL,
			merchant_name VARCHAR(255) NOT NULL,
			first_seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (org_id, merchant_name)
		);

		-- Audit logs table
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			org_id UUID NOT NULL,
			agent_id UUID NOT NULL,
			action VARCHAR(40) NOT NULL,
			purchase_intent_id UUID,
			details JSONB,
			request_id VARCHAR(64) NOT NULL DEFAULT '',
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_audit_org_timestamp
			ON audit_logs(org_id, timestamp DESC);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized")
	return nil
}
