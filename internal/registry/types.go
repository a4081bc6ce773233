// Package registry holds the persistent MCP server registry and the pinning
// service that fingerprints and categorizes remote tool catalogs before they
// are exposed to an orchestrator.
package registry

import (
	"time"

	"github.com/triage-ai/rampart/internal/detect"
)

// Server transports understood by the catalog fetcher.
const (
	TransportStreamableHTTP = "streamable_http"
	TransportSSE            = "sse"
)

// ServerEntry is one MCP server descriptor in the registry file.
// Pin() is the only writer of the pinned_* and categorization fields.
type ServerEntry struct {
	ServerID  string            `json:"server_id"`
	URL       string            `json:"url"`
	Transport string            `json:"transport"`
	AuthType  string            `json:"auth_type,omitempty"` // "none" | "bearer" | "header"
	Headers   map[string]string `json:"headers,omitempty"`
	Preset    string            `json:"preset,omitempty"`

	// AllowList is the operator-maintained tool allowlist consulted when the
	// preset sets auto_approve_requires_allowlist.
	AllowList []string `json:"allow_list,omitempty"`

	// Fields below are written by Pin().
	PinnedToolsHash string                         `json:"pinned_tools_hash,omitempty"`
	ToolCategories  map[string]detect.ToolCategory `json:"tool_categories,omitempty"`
	// AllowedParams maps tool name → declared parameter names. A nil value
	// means the tool's schema declares no object/properties shape — a
	// legitimate outcome, not an error.
	AllowedParams    map[string][]string `json:"allowed_params,omitempty"`
	AutoApproveTools []string            `json:"auto_approve_tools,omitempty"`
	HITLTools        []string            `json:"hitl_tools,omitempty"`
	PinnedAt         time.Time           `json:"pinned_at,omitempty"`
}

// File is the on-disk registry format.
type File struct {
	Servers map[string]*ServerEntry `json:"servers"`
}

// CatalogTool is one tool as fetched from a remote server's live catalog.
type CatalogTool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// PinResult summarizes a successful Pin().
type PinResult struct {
	ServerID        string    `json:"server_id"`
	PinnedToolsHash string    `json:"pinned_tools_hash"`
	ToolCount       int       `json:"tool_count"`
	PinnedAt        time.Time `json:"pinned_at"`
}
