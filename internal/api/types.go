package api

import "time"

// UpsertServerReq is the JSON body for POST /v1/mcp/registry.
type UpsertServerReq struct {
	ServerID  string            `json:"server_id"`
	URL       string            `json:"url"`
	Transport string            `json:"transport,omitempty"`
	AuthType  string            `json:"auth_type,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Preset    string            `json:"preset,omitempty"`
	AllowList []string          `json:"allow_list,omitempty"`
}

// UpsertServerResp echoes the stored descriptor without pin state.
type UpsertServerResp struct {
	ServerID  string `json:"server_id"`
	URL       string `json:"url"`
	Transport string `json:"transport"`
	Preset    string `json:"preset,omitempty"`
}

// PinResp is the JSON body returned by POST /v1/mcp/pin/{server_id}.
type PinResp struct {
	ServerID        string    `json:"server_id"`
	PinnedToolsHash string    `json:"pinned_tools_hash"`
	ToolCount       int       `json:"tool_count"`
	PinnedAt        time.Time `json:"pinned_at"`
}

// snippetServer is one server block in the rendered litellm config.
type snippetServer struct {
	URL             string   `yaml:"url"`
	Transport       string   `yaml:"transport"`
	AllowedTools    []string `yaml:"allowed_tools"`
	DisallowedTools []string `yaml:"disallowed_tools,omitempty"`
}

// litellmSnippet is the YAML document served by GET /v1/mcp/litellm-snippet.
type litellmSnippet struct {
	MCPServers map[string]snippetServer `yaml:"mcp_servers"`
}

// MessageReq is one chat message in a check request.
type MessageReq struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolReq is one tool descriptor in a check request.
type ToolReq struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// CheckRequest is the JSON body for POST /v1/check.
type CheckRequest struct {
	Messages []MessageReq      `json:"messages"`
	Tools    []ToolReq         `json:"tools,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RuleTriggerResp is the evidence for one firing rule.
type RuleTriggerResp struct {
	RuleID    string `json:"rule_id"`
	Score     int    `json:"score,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// CheckResponse is the JSON body returned by POST /v1/check.
type CheckResponse struct {
	Decision      string            `json:"decision"`
	RawDecision   string            `json:"raw_decision"`
	Mode          string            `json:"mode"`
	ReasonCodes   []string          `json:"reason_codes"`
	CorrelationID string            `json:"correlation_id"`
	Preset        string            `json:"preset"`
	RuleTriggers  []RuleTriggerResp `json:"rule_triggers,omitempty"`
	Sanitized     []MessageReq      `json:"sanitized,omitempty"`
	LatencyMs     float32           `json:"latency_ms"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
