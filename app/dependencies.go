package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/config"
	"github.com/Roony-Pay/roony-mcp/middleware"
	"github.com/Roony-Pay/roony-mcp/repositories"
	"github.com/Roony-Pay/roony-mcp/repositories/memory"
	"github.com/Roony-Pay/roony-mcp/repositories/postgres"
	"github.com/Roony-Pay/roony-mcp/repositories/redisvendor"
	"github.com/Roony-Pay/roony-mcp/rpc"
	"github.com/Roony-Pay/roony-mcp/services/budget"
	"github.com/Roony-Pay/roony-mcp/services/payment"
	"github.com/Roony-Pay/roony-mcp/services/purchase"
	"github.com/Roony-Pay/roony-mcp/services/spending"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil when running on the in-memory store

	// Storage
	Store        *repositories.Store
	RedisVendors *redisvendor.Repository // nil unless REDIS_URL is set

	// Payment
	Issuer payment.Issuer

	// Services
	Spending  *spending.Service
	Purchases *purchase.Service
	Budgets   *budget.Service

	// Protocol surface
	Router      *rpc.Router
	RateLimiter *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps.initIssuer(cfg)
	deps.initServices(cfg)

	logger.Info("all dependencies initialized")
	return deps, nil
}

// initStore selects PostgreSQL when configured, falling back to the
// in-memory store for development. An optional Redis connection takes over
// vendor history.
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.HasDatabase() {
		store, db, err := postgres.NewStore(cfg.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		d.DB = db
		d.Store = store
	} else {
		d.Store = memory.NewStore().Repositories()
		d.Logger.Warn("no database configured, using in-memory store")
	}

	if cfg.Redis.URL != "" {
		vendors, err := redisvendor.New(ctx, cfg.Redis.URL, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.RedisVendors = vendors
		d.Store.Vendors = vendors
	}

	return nil
}

// initIssuer selects the real card issuer client when configured, falling
// back to the stub issuer for development
func (d *Dependencies) initIssuer(cfg *config.Config) {
	if cfg.Issuer.BaseURL != "" {
		d.Issuer = payment.NewClient(payment.ClientConfig{
			BaseURL:    cfg.Issuer.BaseURL,
			APIKey:     cfg.Issuer.APIKey,
			Timeout:    cfg.Issuer.Timeout,
			MaxRetries: uint(cfg.Issuer.MaxRetries),
		}, d.Logger)
		d.Logger.Info("card issuer client initialized",
			zap.String("base_url", cfg.Issuer.BaseURL))
		return
	}

	d.Issuer = payment.NewStubIssuer()
	d.Logger.Warn("no card issuer configured, using stub issuer")
}

// initServices wires the policy evaluator, orchestration, and protocol layers
func (d *Dependencies) initServices(cfg *config.Config) {
	var metrics *spending.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = spending.NewMetrics()
	}

	d.Spending = spending.NewService(d.Store, metrics, d.Logger)
	d.Purchases = purchase.NewService(d.Store, d.Spending, d.Issuer, d.Logger)
	d.Budgets = budget.NewService(d.Store, d.Logger)
	d.Router = rpc.NewRouter(d.Purchases, d.Budgets, d.Store, d.Logger)
	d.RateLimiter = middleware.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst, d.Logger)
}

// Close releases held connections
func (d *Dependencies) Close() {
	if d.RedisVendors != nil {
		if err := d.RedisVendors.Close(); err != nil {
			d.Logger.Warn("failed to close redis connection", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("failed to close database connection", zap.Error(err))
		}
	}
}
