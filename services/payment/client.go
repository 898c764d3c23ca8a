package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
)

// ClientConfig holds card issuer API client configuration
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries uint
}

// Client talks to the card issuer API. Calls are wrapped in a circuit
// breaker; transient failures are retried with exponential backoff.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a new card issuer API client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "card-issuer",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
		logger:     logger,
	}
}

// CreateVirtualCard issues a card limited to exactly the requested amount
func (c *Client) CreateVirtualCard(ctx context.Context, req CardRequest) (*models.VirtualCard, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card request: %w", err)
	}

	var card models.VirtualCard
	noPaymentMethod := false

	_, err = c.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(c.cfg.MaxRetries),
		)

		return nil, r.Do(func() error {
			resp, err := c.post(ctx, "/v1/cards", body)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated, http.StatusOK:
				if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
					return fmt.Errorf("failed to decode card response: %w", err)
				}
				return nil
			case http.StatusPaymentRequired:
				// Org has no funding source. Not transient, stop retrying.
				noPaymentMethod = true
				return nil
			default:
				payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return fmt.Errorf("card issuer returned %d: %s", resp.StatusCode, payload)
			}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("card issuance failed: %w", err)
	}
	if noPaymentMethod {
		return nil, ErrNoPaymentMethod
	}

	c.logger.Info("virtual card issued",
		zap.String("purchase_intent_id", req.PurchaseIntentID.String()),
		zap.String("card_id", card.ID.String()),
		zap.Float64("amount", req.Amount))

	return &card, nil
}

// CancelVirtualCard cancels a previously issued card
func (c *Client) CancelVirtualCard(ctx context.Context, cardID uuid.UUID) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.cfg.BaseURL+"/v1/cards/"+cardID.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build cancel request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("cancel request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			return nil, fmt.Errorf("card issuer returned %d on cancel", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("card cancellation failed: %w", err)
	}

	c.logger.Info("virtual card cancelled", zap.String("card_id", cardID.String()))
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
