package budget

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
	"github.com/Roony-Pay/roony-mcp/repositories/memory"
)

func newTestService(t *testing.T) (*Service, *repositories.Store) {
	t.Helper()
	store := memory.NewStore().Repositories()
	return NewService(store, zap.NewNop()), store
}

func fptr(v float64) *float64 { return &v }

func seedApproved(t *testing.T, store *repositories.Store, agentID, orgID uuid.UUID, amount float64) {
	t.Helper()
	require.NoError(t, store.Intents.Create(context.Background(), &models.PurchaseIntent{
		ID:           uuid.New(),
		AgentID:      agentID,
		OrgID:        orgID,
		Amount:       amount,
		Currency:     "USD",
		Description:  "seed",
		MerchantName: "Seed Vendor",
		Status:       models.IntentStatusApproved,
		CreatedAt:    time.Now(),
	}))
}

func TestGetAgentBudget(t *testing.T) {
	svc, store := newTestService(t)

	org := models.NewOrganization("Acme", "acme")
	require.NoError(t, store.Organizations.Create(context.Background(), org))
	agent := models.NewAgent(org.ID, "bot")
	agent.DailyLimit = fptr(100)
	agent.MonthlyLimit = fptr(1000)
	require.NoError(t, store.Agents.Create(context.Background(), agent))
	seedApproved(t, store, agent.ID, org.ID, 40)

	b, err := svc.GetAgentBudget(context.Background(), agent.ID)
	require.NoError(t, err)

	assert.Equal(t, 40.0, b.DailySpend)
	assert.Equal(t, 40.0, b.MonthlySpend)
	require.NotNil(t, b.DailyRemaining)
	assert.Equal(t, 60.0, *b.DailyRemaining)
	require.NotNil(t, b.MonthlyRemaining)
	assert.Equal(t, 960.0, *b.MonthlyRemaining)
}

func TestGetAgentBudget_RemainingClampedAtZero(t *testing.T) {
	svc, store := newTestService(t)

	org := models.NewOrganization("Acme", "acme")
	require.NoError(t, store.Organizations.Create(context.Background(), org))
	agent := models.NewAgent(org.ID, "bot")
	agent.DailyLimit = fptr(50)
	require.NoError(t, store.Agents.Create(context.Background(), agent))
	seedApproved(t, store, agent.ID, org.ID, 80)

	b, err := svc.GetAgentBudget(context.Background(), agent.ID)
	require.NoError(t, err)

	require.NotNil(t, b.DailyRemaining)
	assert.Equal(t, 0.0, *b.DailyRemaining)
}

func TestGetAgentBudget_NoLimits(t *testing.T) {
	svc, store := newTestService(t)

	org := models.NewOrganization("Acme", "acme")
	require.NoError(t, store.Organizations.Create(context.Background(), org))
	agent := models.NewAgent(org.ID, "bot")
	require.NoError(t, store.Agents.Create(context.Background(), agent))

	b, err := svc.GetAgentBudget(context.Background(), agent.ID)
	require.NoError(t, err)

	assert.Nil(t, b.DailyLimit)
	assert.Nil(t, b.DailyRemaining)
	assert.Nil(t, b.MonthlyRemaining)
	assert.Zero(t, b.DailySpend)
}

func TestGetAgentBudget_UnknownAgent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetAgentBudget(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGetBudgetUtilization(t *testing.T) {
	svc, store := newTestService(t)

	org := models.NewOrganization("Acme", "acme")
	org.MonthlyBudget = fptr(1000)
	require.NoError(t, store.Organizations.Create(context.Background(), org))
	agent := models.NewAgent(org.ID, "bot")
	require.NoError(t, store.Agents.Create(context.Background(), agent))

	t.Run("under alert threshold", func(t *testing.T) {
		seedApproved(t, store, agent.ID, org.ID, 500)

		u, err := svc.GetBudgetUtilization(context.Background(), org.ID)
		require.NoError(t, err)

		assert.Equal(t, 0.5, u.Utilization)
		assert.Equal(t, models.DefaultAlertThreshold, u.AlertThreshold)
		assert.False(t, u.Alert)
	})

	t.Run("crossing alert threshold", func(t *testing.T) {
		seedApproved(t, store, agent.ID, org.ID, 300) // total 800 of 1000

		u, err := svc.GetBudgetUtilization(context.Background(), org.ID)
		require.NoError(t, err)

		assert.InDelta(t, 0.8, u.Utilization, 1e-9)
		assert.True(t, u.Alert)
	})
}

func TestGetBudgetUtilization_NoBudget(t *testing.T) {
	svc, store := newTestService(t)

	org := models.NewOrganization("Acme", "acme")
	require.NoError(t, store.Organizations.Create(context.Background(), org))

	u, err := svc.GetBudgetUtilization(context.Background(), org.ID)
	require.NoError(t, err)

	assert.Zero(t, u.Utilization)
	assert.False(t, u.Alert)
}
