package api

import (
	"net/http"

	"github.com/triage-ai/rampart/internal/policy"
)

// handleCheck implements POST /v1/check: one full engine decision over HTTP.
// The primary consumers embed the engine in-process through the gateway hook;
// this endpoint serves out-of-process gateways and integration smoke tests.
func (d *Dependencies) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if len(req.Messages) == 0 && len(req.Tools) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "messages or tools is required"})
		return
	}

	preq := &policy.Request{
		Messages: make([]*policy.Message, 0, len(req.Messages)),
		Tools:    make([]policy.Tool, 0, len(req.Tools)),
		Metadata: req.Metadata,
	}
	for _, m := range req.Messages {
		preq.Messages = append(preq.Messages, &policy.Message{Role: m.Role, Content: m.Content})
	}
	for _, t := range req.Tools {
		preq.Tools = append(preq.Tools, policy.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	dec := d.Engine.Decide(r.Context(), preq)

	resp := CheckResponse{
		Decision:      dec.Decision.String(),
		RawDecision:   dec.RawDecision.String(),
		Mode:          dec.Mode.String(),
		ReasonCodes:   dec.ReasonCodes,
		CorrelationID: dec.CorrelationID,
		Preset:        dec.Preset,
		LatencyMs:     dec.DecisionMs,
	}
	if resp.ReasonCodes == nil {
		resp.ReasonCodes = []string{}
	}
	for _, rt := range dec.RuleTriggers {
		resp.RuleTriggers = append(resp.RuleTriggers, RuleTriggerResp{
			RuleID:    rt.RuleID,
			Score:     rt.Score,
			Threshold: rt.Threshold,
			ToolName:  rt.ToolName,
			Count:     rt.Count,
		})
	}
	if dec.Sanitized != nil {
		for _, m := range dec.Sanitized.Messages {
			if m == nil {
				continue
			}
			resp.Sanitized = append(resp.Sanitized, MessageReq{Role: m.Role, Content: m.Content})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
