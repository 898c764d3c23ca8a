package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Roony-Pay/roony-mcp/models"
)

// ErrNoPaymentMethod is returned when the organization has no funding source
// configured with the card issuer.
var ErrNoPaymentMethod = errors.New("no payment method configured for organization")

// CardRequest represents a request to issue a virtual card bounded to one
// approved purchase intent
type CardRequest struct {
	PurchaseIntentID uuid.UUID `json:"purchase_intent_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	AgentID          uuid.UUID `json:"agent_id"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
}

// Issuer issues and cancels bounded-value virtual cards
type Issuer interface {
	// CreateVirtualCard issues a card limited to exactly the requested amount
	CreateVirtualCard(ctx context.Context, req CardRequest) (*models.VirtualCard, error)

	// CancelVirtualCard cancels a previously issued card
	CancelVirtualCard(ctx context.Context, cardID uuid.UUID) error
}

// StubIssuer issues placeholder cards without contacting a card network.
// Used in development mode when no issuer endpoint is configured.
type StubIssuer struct {
	mu    sync.Mutex
	cards map[uuid.UUID]*models.VirtualCard
}

// NewStubIssuer creates a new StubIssuer instance
func NewStubIssuer() *StubIssuer {
	return &StubIssuer{cards: make(map[uuid.UUID]*models.VirtualCard)}
}

// CreateVirtualCard issues a placeholder card valid for 24 hours
func (s *StubIssuer) CreateVirtualCard(_ context.Context, req CardRequest) (*models.VirtualCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	last4 := fmt.Sprintf("%04d", int(id.ID())%10000)
	card := &models.VirtualCard{
		ID:               id,
		PurchaseIntentID: req.PurchaseIntentID,
		CardNumber:       "4000-0000-0000-" + last4,
		Last4:            last4,
		ExpiresAt:        time.Now().Add(24 * time.Hour),
		Amount:           req.Amount,
		Currency:         req.Currency,
	}
	s.cards[id] = card
	return card, nil
}

// CancelVirtualCard removes a placeholder card
func (s *StubIssuer) CancelVirtualCard(_ context.Context, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[cardID]; !ok {
		return fmt.Errorf("card not found: %s", cardID)
	}
	delete(s.cards, cardID)
	return nil
}
