package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/triage-ai/rampart/internal/detect"
	"github.com/triage-ai/rampart/internal/registry"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// handleGetRegistry implements GET /v1/mcp/registry.
func (d *Dependencies) handleGetRegistry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, d.Registry.Snapshot())
}

// handleUpsertServer implements POST /v1/mcp/registry. Upserting an already
// pinned server updates the descriptor fields and keeps its pin state; the
// next Pin re-fingerprints under the new settings.
func (d *Dependencies) handleUpsertServer(w http.ResponseWriter, r *http.Request) {
	var req UpsertServerReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.ServerID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "server_id is required"})
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "url is required"})
		return
	}
	transport := req.Transport
	if transport == "" {
		transport = registry.TransportStreamableHTTP
	}
	if transport != registry.TransportStreamableHTTP && transport != registry.TransportSSE {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "transport must be streamable_http or sse"})
		return
	}

	entry := &registry.ServerEntry{
		ServerID:  req.ServerID,
		URL:       req.URL,
		Transport: transport,
		AuthType:  req.AuthType,
		Headers:   req.Headers,
		Preset:    req.Preset,
		AllowList: req.AllowList,
	}
	if existing, err := d.Registry.Get(req.ServerID); err == nil {
		entry.PinnedToolsHash = existing.PinnedToolsHash
		entry.ToolCategories = existing.ToolCategories
		entry.AllowedParams = existing.AllowedParams
		entry.AutoApproveTools = existing.AutoApproveTools
		entry.HITLTools = existing.HITLTools
		entry.PinnedAt = existing.PinnedAt
	}

	if err := d.Registry.Upsert(entry); err != nil {
		d.Logger.Error("registry upsert failed", zap.String("server_id", req.ServerID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to persist registry"})
		return
	}

	writeJSON(w, http.StatusOK, UpsertServerResp{
		ServerID:  entry.ServerID,
		URL:       entry.URL,
		Transport: entry.Transport,
		Preset:    entry.Preset,
	})
}

// handlePin implements POST /v1/mcp/pin/{server_id}.
func (d *Dependencies) handlePin(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("server_id")

	result, err := d.Pinner.Pin(r.Context(), serverID)
	switch {
	case errors.Is(err, registry.ErrServerNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Unknown server_id"})
		return
	case errors.Is(err, registry.ErrCatalogFetch):
		writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: "Tool catalog fetch failed"})
		return
	case err != nil:
		d.Logger.Error("pin failed", zap.String("server_id", serverID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Pin failed"})
		return
	}

	writeJSON(w, http.StatusOK, PinResp{
		ServerID:        result.ServerID,
		PinnedToolsHash: result.PinnedToolsHash,
		ToolCount:       result.ToolCount,
		PinnedAt:        result.PinnedAt,
	})
}

// handleLitellmSnippet implements GET /v1/mcp/litellm-snippet. Renders an
// allow/deny-list YAML block for every pinned server: the read_only preset
// admits only read-category tools, every other preset admits everything
// except dangerous tools.
func (d *Dependencies) handleLitellmSnippet(w http.ResponseWriter, _ *http.Request) {
	snap := d.Registry.Snapshot()

	doc := litellmSnippet{MCPServers: make(map[string]snippetServer, len(snap.Servers))}
	for id, entry := range snap.Servers {
		if len(entry.ToolCategories) == 0 {
			continue // not pinned yet
		}

		var allowed, disallowed []string
		for name, category := range entry.ToolCategories {
			switch {
			case entry.Preset == "read_only" && category != detect.ToolRead:
				disallowed = append(disallowed, name)
			case category == detect.ToolDangerous:
				disallowed = append(disallowed, name)
			default:
				allowed = append(allowed, name)
			}
		}
		sort.Strings(allowed)
		sort.Strings(disallowed)

		doc.MCPServers[id] = snippetServer{
			URL:             entry.URL,
			Transport:       entry.Transport,
			AllowedTools:    allowed,
			DisallowedTools: disallowed,
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		d.Logger.Error("snippet render failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to render snippet"})
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
