// Package gateway adapts the policy engine to the plugin-style pre-call
// hook contract a hosting LLM gateway invokes once per inbound request.
package gateway

import (
	"context"
	"strings"

	"github.com/triage-ai/rampart/internal/policy"
)

// BlockedError is returned when a request must not proceed. Its message is a
// short, non-leaking refusal carrying only machine-readable reason codes,
// never the offending content.
type BlockedError struct {
	ReasonCodes   []string
	CorrelationID string
}

func (e *BlockedError) Error() string {
	return "request blocked by policy [" + strings.Join(e.ReasonCodes, ",") + "] correlation_id=" + e.CorrelationID
}

// Hook is the pre-call guardrail callback.
type Hook struct {
	engine *policy.Engine
}

// NewHook creates a Hook around the engine.
func NewHook(engine *policy.Engine) *Hook {
	return &Hook{engine: engine}
}

// PreCall evaluates the request. On ALLOW/WARN it returns the request to
// forward (the sanitized copy when redaction changed anything, the original
// otherwise) together with the decision, whose warnings and correlation id
// the caller must attach to its response metadata. On BLOCK it returns a
// *BlockedError and the call must be short-circuited.
//
// The hook tolerates nil requests and malformed or partial metadata; the
// engine fails closed rather than panicking through the gateway.
func (h *Hook) PreCall(ctx context.Context, req *policy.Request) (*policy.Request, *policy.PolicyDecision, error) {
	decision := h.engine.Decide(ctx, req)

	if decision.Decision == policy.DecisionBlock {
		return nil, decision, &BlockedError{
			ReasonCodes:   decision.ReasonCodes,
			CorrelationID: decision.CorrelationID,
		}
	}

	forward := req
	if decision.Sanitized != nil {
		forward = decision.Sanitized
	}
	return forward, decision, nil
}
