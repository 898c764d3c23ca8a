package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Roony-Pay/roony-mcp/models"
	"github.com/Roony-Pay/roony-mcp/repositories"
	"github.com/Roony-Pay/roony-mcp/repositories/memory"
	"github.com/Roony-Pay/roony-mcp/services/budget"
	"github.com/Roony-Pay/roony-mcp/services/payment"
	"github.com/Roony-Pay/roony-mcp/services/purchase"
	"github.com/Roony-Pay/roony-mcp/services/spending"
)

func newTestRouter(t *testing.T) (*Router, *repositories.Store) {
	t.Helper()
	store := memory.NewStore().Repositories()
	logger := zap.NewNop()
	checker := spending.NewService(store, nil, logger)
	purchases := purchase.NewService(store, checker, payment.NewStubIssuer(), logger)
	budgets := budget.NewService(store, logger)
	return NewRouter(purchases, budgets, store, logger), store
}

func fptr(v float64) *float64 { return &v }

func seedAgentWithOrg(t *testing.T, store *repositories.Store, mutate func(*models.Agent, *models.Organization)) *models.Agent {
	t.Helper()
	org := models.NewOrganization("Acme", "acme")
	agent := models.NewAgent(org.ID, "bot")
	if mutate != nil {
		mutate(agent, org)
	}
	require.NoError(t, store.Organizations.Create(context.Background(), org))
	require.NoError(t, store.Agents.Create(context.Background(), agent))
	return agent
}

func rpcRequest(method string, params string) *Request {
	req := &Request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: method}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

func callTool(name, args string) *Request {
	params := fmt.Sprintf(`{"name":%q`, name)
	if args != "" {
		params += `,"arguments":` + args
	}
	params += `}`
	return rpcRequest("tools/call", params)
}

// toolPayload extracts and decodes the text payload of a tool result
func toolPayload(t *testing.T, resp *Response) (map[string]interface{}, *ToolResult) {
	t.Helper()
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "expected a tool result, got protocol error")
	result, ok := resp.Result.(*ToolResult)
	require.True(t, ok, "result is not a ToolResult")
	require.Len(t, result.Content, 1)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	return payload, result
}

func TestHandle_Initialize(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := router.Handle(context.Background(), rpcRequest("initialize", ""))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(InitializeResult)
	require.True(t, ok)
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, serverName, result.ServerInfo.Name)
}

func TestHandle_ToolsList(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := router.Handle(context.Background(), rpcRequest("tools/list", ""))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(ListToolsResult)
	require.True(t, ok)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.Equal(t, []string{"request_purchase", "check_budget", "list_transactions", "get_policy_info"}, names)
}

func TestHandle_MethodNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := router.Handle(context.Background(), rpcRequest("resources/list", ""))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestHandle_Notification(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := router.Handle(context.Background(), &Request{JSONRPC: "2.0", Method: "notifications/initialized"})
	assert.Nil(t, resp)
}

func TestHandle_UnknownTool(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := router.Handle(context.Background(), callTool("mystery_tool", `{}`))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestRequestPurchase_MissingIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := router.Handle(context.Background(),
		callTool("request_purchase", `{"amount":25,"currency":"USD","description":"d","merchant_name":"AWS"}`))

	payload, result := toolPayload(t, resp)
	assert.True(t, result.IsError)
	assert.Contains(t, payload["error"], "X-Agent-ID")
}

func TestRequestPurchase_ValidationFailures(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, nil)
	ctx := WithAgentID(context.Background(), agent.ID)

	tests := []struct {
		name string
		args string
	}{
		{"zero amount", `{"amount":0,"currency":"USD","description":"d","merchant_name":"AWS"}`},
		{"negative amount", `{"amount":-5,"currency":"USD","description":"d","merchant_name":"AWS"}`},
		{"missing merchant", `{"amount":5,"currency":"USD","description":"d"}`},
		{"bad currency", `{"amount":5,"currency":"DOLLARS","description":"d","merchant_name":"AWS"}`},
		{"unknown field", `{"amount":5,"currency":"USD","description":"d","merchant_name":"AWS","amout":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := router.Handle(ctx, callTool("request_purchase", tt.args))
			_, result := toolPayload(t, resp)
			assert.True(t, result.IsError)

			// Invalid input never reaches storage
			intents, err := store.Intents.ListByAgent(context.Background(), agent.ID, repositories.IntentFilter{})
			require.NoError(t, err)
			assert.Empty(t, intents)
		})
	}
}

func TestRequestPurchase_Approved(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, nil)
	ctx := WithAgentID(context.Background(), agent.ID)

	resp := router.Handle(ctx,
		callTool("request_purchase", `{"amount":25,"currency":"USD","description":"api credits","merchant_name":"AWS"}`))

	payload, result := toolPayload(t, resp)
	assert.False(t, result.IsError)
	assert.Equal(t, "approved", payload["status"])
	assert.NotEmpty(t, payload["intent_id"])
	assert.NotNil(t, payload["card"])
}

func TestRequestPurchase_PolicyRejectionIsNotProtocolError(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, func(a *models.Agent, _ *models.Organization) {
		a.PerTransactionLimit = fptr(100)
	})
	ctx := WithAgentID(context.Background(), agent.ID)

	resp := router.Handle(ctx,
		callTool("request_purchase", `{"amount":150,"currency":"USD","description":"d","merchant_name":"AWS"}`))

	payload, result := toolPayload(t, resp)
	assert.False(t, result.IsError, "policy rejections are ordinary tool results")
	assert.Equal(t, "rejected", payload["status"])
	assert.Equal(t, "OVER_TRANSACTION_LIMIT", payload["rejection_code"])
	assert.NotEmpty(t, payload["suggestion"])
}

func TestCheckBudget_Periods(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, func(a *models.Agent, _ *models.Organization) {
		a.DailyLimit = fptr(100)
		a.MonthlyLimit = fptr(1000)
	})
	ctx := WithAgentID(context.Background(), agent.ID)

	t.Run("daily omits monthly fields", func(t *testing.T) {
		payload, _ := toolPayload(t, router.Handle(ctx, callTool("check_budget", `{"period":"daily"}`)))
		assert.Equal(t, "daily", payload["period"])
		assert.Contains(t, payload, "daily_limit")
		assert.NotContains(t, payload, "monthly_limit")
	})

	t.Run("default is all", func(t *testing.T) {
		payload, _ := toolPayload(t, router.Handle(ctx, callTool("check_budget", "")))
		assert.Equal(t, "all", payload["period"])
		assert.Contains(t, payload, "daily_limit")
		assert.Contains(t, payload, "monthly_limit")
	})

	t.Run("invalid period", func(t *testing.T) {
		_, result := toolPayload(t, router.Handle(ctx, callTool("check_budget", `{"period":"weekly"}`)))
		assert.True(t, result.IsError)
	})
}

func TestListTransactions(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, nil)
	ctx := WithAgentID(context.Background(), agent.ID)

	for i := 0; i < 3; i++ {
		resp := router.Handle(ctx,
			callTool("request_purchase", `{"amount":10,"currency":"USD","description":"d","merchant_name":"AWS"}`))
		_, result := toolPayload(t, resp)
		require.False(t, result.IsError)
	}

	t.Run("lists all", func(t *testing.T) {
		payload, _ := toolPayload(t, router.Handle(ctx, callTool("list_transactions", "")))
		assert.Equal(t, float64(3), payload["count"])
	})

	t.Run("respects limit", func(t *testing.T) {
		payload, _ := toolPayload(t, router.Handle(ctx, callTool("list_transactions", `{"limit":2}`)))
		assert.Equal(t, float64(2), payload["count"])
	})

	t.Run("limit above cap is rejected", func(t *testing.T) {
		_, result := toolPayload(t, router.Handle(ctx, callTool("list_transactions", `{"limit":100}`)))
		assert.True(t, result.IsError)
	})

	t.Run("filters by status", func(t *testing.T) {
		payload, _ := toolPayload(t, router.Handle(ctx, callTool("list_transactions", `{"status":"rejected"}`)))
		assert.Equal(t, float64(0), payload["count"])
	})
}

func TestGetPolicyInfo_Idempotent(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, func(a *models.Agent, o *models.Organization) {
		a.PerTransactionLimit = fptr(100)
		a.BlockedMerchants = []string{"figma"}
		o.MonthlyBudget = fptr(5000)
		o.Guardrails = &models.Guardrails{MaxTransactionAmount: fptr(500)}
	})
	ctx := WithAgentID(context.Background(), agent.ID)

	first := router.Handle(ctx, callTool("get_policy_info", ""))
	second := router.Handle(ctx, callTool("get_policy_info", ""))

	firstPayload, firstResult := toolPayload(t, first)
	_, secondResult := toolPayload(t, second)

	assert.Equal(t, firstResult.Content[0].Text, secondResult.Content[0].Text)
	assert.Equal(t, agent.ID.String(), firstPayload["agent_id"])
	assert.Equal(t, "active", firstPayload["status"])
	assert.Equal(t, 100.0, firstPayload["per_transaction_limit"])
}

func TestGetPolicyInfo_UnknownAgent(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx := WithAgentID(context.Background(), uuid.New())

	payload, result := toolPayload(t, router.Handle(ctx, callTool("get_policy_info", "")))
	assert.True(t, result.IsError)
	assert.Contains(t, payload["error"], "not found")
}

func TestServeHTTP(t *testing.T) {
	router, store := newTestRouter(t)
	agent := seedAgentWithOrg(t, store, nil)

	t.Run("parse error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{not json"))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeParseError, resp.Error.Code)
	})

	t.Run("tool call round trip", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"get_policy_info"}}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		req = req.WithContext(WithAgentID(req.Context(), agent.ID))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"jsonrpc":"2.0"`)
		assert.Contains(t, rec.Body.String(), agent.ID.String())
	})

	t.Run("notification gets 202", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}
