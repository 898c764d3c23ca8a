// Package redisvendor keeps per-organization vendor history in Redis sets.
// It is an optional drop-in for the primary store's VendorRepository so that
// new-vendor checks stay fast under load and survive across deployments that
// share a Redis instance.
package redisvendor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/repositories"
)

// Repository implements repositories.VendorRepository backed by Redis sets.
// Each organization gets one set keyed by its ID; members are lowercased
// merchant names.
type Repository struct {
	client *redis.Client
	logger *zap.Logger
}

// New connects to Redis using the given URL and verifies the connection
func New(ctx context.Context, redisURL string, logger *zap.Logger) (*Repository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis for vendor history", zap.String("addr", opts.Addr))
	return &Repository{client: client, logger: logger}, nil
}

var _ repositories.VendorRepository = (*Repository)(nil)

func vendorKey(orgID uuid.UUID) string {
	return "roony:vendors:" + orgID.String()
}

// IsNewVendor returns true when the merchant was never recorded for the org
func (r *Repository) IsNewVendor(ctx context.Context, orgID uuid.UUID, merchantName string) (bool, error) {
	known, err := r.client.SIsMember(ctx, vendorKey(orgID), strings.ToLower(merchantName)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check vendor history: %w", err)
	}
	return !known, nil
}

// RecordMerchant marks the merchant as known to the organization
func (r *Repository) RecordMerchant(ctx context.Context, orgID uuid.UUID, merchantName string) error {
	if err := r.client.SAdd(ctx, vendorKey(orgID), strings.ToLower(merchantName)).Err(); err != nil {
		return fmt.Errorf("failed to record merchant: %w", err)
	}
	return nil
}

// Close releases the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}
