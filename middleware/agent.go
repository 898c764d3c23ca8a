package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Roony-Pay/roony-mcp/rpc"
	"github.com/Roony-Pay/roony-mcp/utils"
)

// AgentHeader carries the calling agent's identity on every request
const AgentHeader = "X-Agent-ID"

// AgentIdentity resolves the calling agent from the X-Agent-ID header and
// attaches it to the request context. A missing header passes through; tools
// that need an identity report it in-band. A malformed header is rejected
// before any tool runs.
func AgentIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw := req.Header.Get(AgentHeader)
		if raw == "" {
			next.ServeHTTP(w, req)
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "X-Agent-ID must be a valid UUID", nil)
			return
		}

		next.ServeHTTP(w, req.WithContext(rpc.WithAgentID(req.Context(), id)))
	})
}
