package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
)

func seedIntent(t *testing.T, store *repositories.Store, agentID, orgID uuid.UUID, amount float64, status models.IntentStatus, createdAt time.Time) *models.PurchaseIntent {
	t.Helper()
	intent := &models.PurchaseIntent{
		ID:           uuid.New(),
		AgentID:      agentID,
		OrgID:        orgID,
		Amount:       amount,
		Currency:     "USD",
		Description:  "seed",
		MerchantName: "Vendor",
		Status:       status,
		CreatedAt:    createdAt,
	}
	require.NoError(t, store.Intents.Create(context.Background(), intent))
	return intent
}

func TestAgentRepo_NotFound(t *testing.T) {
	store := NewStore().Repositories()

	_, err := store.Agents.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	err = store.Agents.Update(context.Background(), models.NewAgent(uuid.New(), "ghost"))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAgentRepo_CopiesOnRead(t *testing.T) {
	store := NewStore().Repositories()
	agent := models.NewAgent(uuid.New(), "bot")
	require.NoError(t, store.Agents.Create(context.Background(), agent))

	got, err := store.Agents.GetByID(context.Background(), agent.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.Agents.GetByID(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "bot", again.Name)
}

func TestSpendRepo_Aggregation(t *testing.T) {
	store := NewStore().Repositories()
	agentID, orgID := uuid.New(), uuid.New()
	now := time.Now()

	seedIntent(t, store, agentID, orgID, 100, models.IntentStatusApproved, now)
	// Rejected purchases never count toward spend
	seedIntent(t, store, agentID, orgID, 50, models.IntentStatusRejected, now)
	// Outside the daily window
	seedIntent(t, store, agentID, orgID, 30, models.IntentStatusApproved, now.Add(-48*time.Hour))
	// Outside the monthly window
	seedIntent(t, store, agentID, orgID, 20, models.IntentStatusApproved, now.AddDate(0, 0, -40))

	daily, err := store.Spend.GetAgentSpend(context.Background(), agentID, models.PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 100.0, daily)

	monthly, err := store.Spend.GetAgentSpend(context.Background(), agentID, models.PeriodMonthly)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, monthly, 100.0)
	assert.Less(t, monthly, 150.0)

	orgMonthly, err := store.Spend.GetOrgSpend(context.Background(), orgID, models.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, monthly, orgMonthly)
}

func TestVendorRepo_CaseInsensitive(t *testing.T) {
	store := NewStore().Repositories()
	orgID := uuid.New()

	isNew, err := store.Vendors.IsNewVendor(context.Background(), orgID, "Figma Inc.")
	require.NoError(t, err)
	assert.True(t, isNew)

	require.NoError(t, store.Vendors.RecordMerchant(context.Background(), orgID, "FIGMA INC."))

	isNew, err = store.Vendors.IsNewVendor(context.Background(), orgID, "figma inc.")
	require.NoError(t, err)
	assert.False(t, isNew)
}

func TestIntentRepo_ListByAgent(t *testing.T) {
	store := NewStore().Repositories()
	agentID, orgID := uuid.New(), uuid.New()
	now := time.Now()

	oldest := seedIntent(t, store, agentID, orgID, 1, models.IntentStatusApproved, now.Add(-3*time.Minute))
	seedIntent(t, store, agentID, orgID, 2, models.IntentStatusRejected, now.Add(-2*time.Minute))
	newest := seedIntent(t, store, agentID, orgID, 3, models.IntentStatusApproved, now.Add(-time.Minute))
	seedIntent(t, store, uuid.New(), orgID, 4, models.IntentStatusApproved, now) // other agent

	t.Run("most recent first", func(t *testing.T) {
		intents, err := store.Intents.ListByAgent(context.Background(), agentID, repositories.IntentFilter{})
		require.NoError(t, err)
		require.Len(t, intents, 3)
		assert.Equal(t, newest.ID, intents[0].ID)
		assert.Equal(t, oldest.ID, intents[2].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		status := models.IntentStatusRejected
		intents, err := store.Intents.ListByAgent(context.Background(), agentID, repositories.IntentFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, intents, 1)
		assert.Equal(t, 2.0, intents[0].Amount)
	})

	t.Run("limit", func(t *testing.T) {
		intents, err := store.Intents.ListByAgent(context.Background(), agentID, repositories.IntentFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, intents, 2)
	})
}

func TestIntentRepo_UpdateStatus(t *testing.T) {
	store := NewStore().Repositories()
	agentID, orgID := uuid.New(), uuid.New()
	intent := seedIntent(t, store, agentID, orgID, 10, models.IntentStatusApproved, time.Now())

	code := models.RejectionNoPaymentMethod
	reason := "no funding source"
	require.NoError(t, store.Intents.UpdateStatus(context.Background(), intent.ID, models.IntentStatusRejected, &code, &reason))

	got, err := store.Intents.GetByID(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusRejected, got.Status)
	require.NotNil(t, got.RejectionCode)
	assert.Equal(t, code, *got.RejectionCode)

	err = store.Intents.UpdateStatus(context.Background(), uuid.New(), models.IntentStatusExpired, nil, nil)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestApprovalRepo_ListPendingOldestFirst(t *testing.T) {
	store := NewStore().Repositories()
	orgID := uuid.New()
	now := time.Now()

	newer := &models.PendingApproval{
		ID: uuid.New(), PurchaseIntentID: uuid.New(), AgentID: uuid.New(), OrgID: orgID,
		Reason: models.ApprovalReasonOverThreshold, Status: models.ApprovalStatusPending, CreatedAt: now,
	}
	older := &models.PendingApproval{
		ID: uuid.New(), PurchaseIntentID: uuid.New(), AgentID: uuid.New(), OrgID: orgID,
		Reason: models.ApprovalReasonNewVendor, Status: models.ApprovalStatusPending, CreatedAt: now.Add(-time.Hour),
	}
	reviewed := &models.PendingApproval{
		ID: uuid.New(), PurchaseIntentID: uuid.New(), AgentID: uuid.New(), OrgID: orgID,
		Reason: models.ApprovalReasonOverThreshold, Status: models.ApprovalStatusApproved, CreatedAt: now.Add(-2 * time.Hour),
	}
	for _, a := range []*models.PendingApproval{newer, older, reviewed} {
		require.NoError(t, store.Approvals.Create(context.Background(), a))
	}

	pending, err := store.Approvals.ListPending(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, newer.ID, pending[1].ID)
}

func TestAuditRepo_Pagination(t *testing.T) {
	store := NewStore().Repositories()
	orgID := uuid.New()

	for i := 0; i < 5; i++ {
		entry := models.NewAuditLog(orgID, uuid.New(), models.AuditActionPurchaseRequested)
		require.NoError(t, store.AuditLogs.Insert(context.Background(), entry))
	}

	page, err := store.AuditLogs.ListByOrg(context.Background(), orgID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.AuditLogs.ListByOrg(context.Background(), orgID, 10, 4)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	none, err := store.AuditLogs.ListByOrg(context.Background(), orgID, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}
