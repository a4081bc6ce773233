// Package policy implements the guardrail decision pipeline:
// normalize → classify → evaluate rules → compatibility gate → redact →
// log/metrics. The Engine is the single public entry point.
package policy

import (
	"github.com/triage-ai/rampart/internal/config"
)

// Decision is the outcome of evaluating a request.
type Decision int

const (
	DecisionAllow Decision = iota + 1
	DecisionWarn
	DecisionBlock
)

// String returns the lowercase decision name.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionWarn:
		return "warn"
	case DecisionBlock:
		return "block"
	default:
		return "unspecified"
	}
}

// escalate returns the more severe of two decisions. Rules may only raise
// the running decision, never lower it.
func escalate(a, b Decision) Decision {
	if b > a {
		return b
	}
	return a
}

// Reason codes attached to decisions. Machine-readable; a blocked request's
// refusal carries only these, never the offending content.
const (
	ReasonPromptInjection   = "prompt_injection_detected"
	ReasonCreditCard        = "credit_card_detected"
	ReasonEmail             = "email_detected"
	ReasonPhone             = "phone_detected"
	ReasonMedicalTerm       = "medical_term_detected"
	ReasonRiskyTool         = "risky_tool_detected"
	ReasonDangerousTool     = "dangerous_tool_detected"
	ReasonToolNeedsApproval = "tool_requires_approval"
	ReasonEngineError       = "policy_engine_error"
)

// Metadata keys recognized on inbound requests.
const (
	MetaTenantID      = "tenant_id"
	MetaPreset        = "preset"
	MetaCompatMode    = "compatibility_mode"
	MetaCorrelationID = "correlation_id"
	MetaMCPServerID   = "mcp_server_id"
)

// Message is one chat message of an inbound request.
type Message struct {
	Role    string
	Content string
}

// Tool is one tool descriptor attached to an inbound request.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request is the raw inbound request handed to Decide. It is treated as
// immutable once classification begins; redaction produces a copy.
type Request struct {
	Messages []*Message
	Tools    []Tool
	Metadata map[string]string
}

// meta returns a metadata value, tolerating a nil map.
func (r *Request) meta(key string) string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}

// Classification is the derived, read-only view of a request used by the
// rule evaluator. Building it never mutates the request.
type Classification struct {
	Text        string
	TextLength  int
	PresetName  string
	Preset      config.Preset
	Tools       []Tool
	ToolCount   int
	HasTools    bool
	MCPServerID string
}

// RuleTrigger records the evidence for one firing rule.
type RuleTrigger struct {
	RuleID    string `json:"rule_id"`
	Score     int    `json:"score,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Count     int    `json:"count,omitempty"`
}

// PolicyDecision is the result of one Decide call.
type PolicyDecision struct {
	Decision      Decision
	RawDecision   Decision // before the compatibility gate, preserved for audit
	Mode          Mode
	ReasonCodes   []string
	Sanitized     *Request // nil when no PII category is configured for masking
	TenantID      string
	CorrelationID string
	Preset        string
	RuleTriggers  []RuleTrigger
	DecisionMs    float32
}

// appendReason adds a reason code if not already present, preserving order.
func appendReason(codes []string, code string) []string {
	for _, c := range codes {
		if c == code {
			return codes
		}
	}
	return append(codes, code)
}
