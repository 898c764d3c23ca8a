package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
)

func cardRequest() CardRequest {
	return CardRequest{
		PurchaseIntentID: uuid.New(),
		OrganizationID:   uuid.New(),
		AgentID:          uuid.New(),
		Amount:           42.50,
		Currency:         "USD",
	}
}

func writeCard(t *testing.T, w http.ResponseWriter, req CardRequest) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	require.NoError(t, json.NewEncoder(w).Encode(models.VirtualCard{
		ID:               uuid.New(),
		PurchaseIntentID: req.PurchaseIntentID,
		CardNumber:       "4000-0000-0000-1234",
		Last4:            "1234",
		ExpiresAt:        time.Now().Add(24 * time.Hour),
		Amount:           req.Amount,
		Currency:         req.Currency,
	}))
}

func TestClient_CreateVirtualCard(t *testing.T) {
	req := cardRequest()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/cards", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var got CardRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, req.PurchaseIntentID, got.PurchaseIntentID)
		assert.Equal(t, 42.50, got.Amount)

		writeCard(t, w, got)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "test-key"}, zap.NewNop())

	card, err := client.CreateVirtualCard(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.PurchaseIntentID, card.PurchaseIntentID)
	assert.Equal(t, 42.50, card.Amount)
	assert.Equal(t, "1234", card.Last4)
}

func TestClient_CreateVirtualCard_NoPaymentMethod(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 3}, zap.NewNop())

	_, err := client.CreateVirtualCard(context.Background(), cardRequest())
	assert.ErrorIs(t, err, ErrNoPaymentMethod)
	// 402 is not transient; no retries
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CreateVirtualCard_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var got CardRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCard(t, w, got)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 3}, zap.NewNop())

	card, err := client.CreateVirtualCard(context.Background(), cardRequest())
	require.NoError(t, err)
	assert.NotNil(t, card)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CreateVirtualCard_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 2}, zap.NewNop())

	_, err := client.CreateVirtualCard(context.Background(), cardRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card issuance failed")
}

func TestClient_CancelVirtualCard(t *testing.T) {
	cardID := uuid.New()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/v1/cards/"+cardID.String(), r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		client := NewClient(ClientConfig{BaseURL: srv.URL}, zap.NewNop())
		assert.NoError(t, client.CancelVirtualCard(context.Background(), cardID))
	})

	t.Run("issuer error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		client := NewClient(ClientConfig{BaseURL: srv.URL}, zap.NewNop())
		err := client.CancelVirtualCard(context.Background(), cardID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "409")
	})
}

func TestStubIssuer(t *testing.T) {
	issuer := NewStubIssuer()
	req := cardRequest()

	card, err := issuer.CreateVirtualCard(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.PurchaseIntentID, card.PurchaseIntentID)
	assert.Equal(t, req.Amount, card.Amount)
	assert.Len(t, card.Last4, 4)
	assert.True(t, card.ExpiresAt.After(time.Now()))

	require.NoError(t, issuer.CancelVirtualCard(context.Background(), card.ID))
	assert.Error(t, issuer.CancelVirtualCard(context.Background(), card.ID))
}
