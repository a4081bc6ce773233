package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/triage-ai/rampart/internal/policy"
	"github.com/triage-ai/rampart/internal/registry"
	"go.uber.org/zap"
)

// ServerPinner pins one registry server's tool catalog. Satisfied by
// *registry.Pinner.
type ServerPinner interface {
	Pin(ctx context.Context, serverID string) (*registry.PinResult, error)
}

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Registry     *registry.Store
	Pinner       ServerPinner
	Engine       *policy.Engine
	Logger       *zap.Logger
	AdminKey     string // plaintext fallback, constant-time compared
	AdminKeyHash string // bcrypt hash, takes precedence
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Decision endpoint (admin auth required)
	mux.HandleFunc("POST /v1/check", deps.adminMiddleware(deps.handleCheck))

	// MCP registry control plane (admin auth required)
	mux.HandleFunc("GET /v1/mcp/registry", deps.adminMiddleware(deps.handleGetRegistry))
	mux.HandleFunc("POST /v1/mcp/registry", deps.adminMiddleware(deps.handleUpsertServer))
	mux.HandleFunc("POST /v1/mcp/pin/{server_id}", deps.adminMiddleware(deps.handlePin))
	mux.HandleFunc("GET /v1/mcp/litellm-snippet", deps.adminMiddleware(deps.handleLitellmSnippet))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return requestLogging(mux, deps.Logger)
}
