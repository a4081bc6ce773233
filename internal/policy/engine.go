package policy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/triage-ai/rampart/internal/audit"
	"github.com/triage-ai/rampart/internal/config"
	"go.uber.org/zap"
)

// Engine orchestrates the decision pipeline. Decide is safe for concurrent
// use; the config cache and the tool catalog snapshot are the only shared
// state it touches.
type Engine struct {
	classifier *Classifier
	rules      *RuleEvaluator
	redactor   *Redactor
	mode       Mode
	writer     audit.EventWriter
	logger     *zap.Logger
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Presets       *config.PresetSource
	DefaultPreset string
	DefaultMode   Mode
	Catalog       ToolCatalog        // nil disables the registry-backed rules
	Writer        audit.EventWriter  // nil disables decision events
	Logger        *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	mode := cfg.DefaultMode
	if mode == 0 {
		mode = FallbackMode
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		classifier: NewClassifier(cfg.Presets, cfg.DefaultPreset),
		rules:      NewRuleEvaluator(cfg.Catalog, logger),
		redactor:   NewRedactor(),
		mode:       mode,
		writer:     cfg.Writer,
		logger:     logger,
	}
}

// Decide evaluates a request and returns the policy decision. Any panic
// inside the pipeline is converted into BLOCK with reason
// policy_engine_error and a fresh correlation id — fail-closed: when the
// engine itself is unhealthy, over-blocking beats letting an unvetted
// request through. Duration is measured and recorded regardless of outcome.
func (e *Engine) Decide(ctx context.Context, req *Request) (out *PolicyDecision) {
	start := time.Now()
	var textLength, toolCount int

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("policy engine panic, failing closed",
				zap.Any("panic", r),
			)
			audit.EngineErrorsTotal.Inc()
			out = &PolicyDecision{
				Decision:      DecisionBlock,
				RawDecision:   DecisionBlock,
				Mode:          e.mode,
				ReasonCodes:   []string{ReasonEngineError},
				CorrelationID: uuid.New().String(),
			}
		}
		out.DecisionMs = float32(float64(time.Since(start)) / float64(time.Millisecond))
		audit.RecordDecision(out.Decision.String(), out.RawDecision.String(), time.Since(start).Seconds())
		e.writeEvent(out, textLength, toolCount)
	}()

	req = normalize(req)

	// Classify
	cls := e.classifier.Classify(req)
	textLength = cls.TextLength
	toolCount = cls.ToolCount

	// Evaluate ordered rules
	raw, reasons, triggers := e.rules.Evaluate(cls)
	for _, t := range triggers {
		audit.RecordRuleTrigger(t.RuleID)
	}

	// Gate: last transformation before redaction/return. Reason codes and
	// triggers stay untouched so operators can see what would have blocked.
	mode := e.resolveMode(req)
	final := ApplyMode(raw, mode)

	// Redact only requests that are allowed or warned through
	var sanitized *Request
	if final != DecisionBlock {
		sanitized = e.redactor.Redact(req, cls.Preset.PII)
	}

	return &PolicyDecision{
		Decision:      final,
		RawDecision:   raw,
		Mode:          mode,
		ReasonCodes:   reasons,
		Sanitized:     sanitized,
		TenantID:      req.meta(MetaTenantID),
		CorrelationID: e.correlationID(req),
		Preset:        cls.PresetName,
		RuleTriggers:  triggers,
	}
}

// normalize tolerates nil and partially-populated requests so a malformed
// gateway payload can never panic the pipeline before the recover fires.
func normalize(req *Request) *Request {
	if req == nil {
		return &Request{}
	}
	return req
}

// resolveMode picks the per-request compatibility mode from metadata,
// falling back to the engine default. Unparseable values land on
// FallbackMode (full enforcement) by way of ParseMode.
func (e *Engine) resolveMode(req *Request) Mode {
	if s := req.meta(MetaCompatMode); s != "" {
		return ParseMode(s)
	}
	return e.mode
}

// correlationID returns the caller's correlation id, generating one when
// absent. Exactly one id per inbound request; it must be propagated back on
// the caller's response metadata.
func (e *Engine) correlationID(req *Request) string {
	if id := req.meta(MetaCorrelationID); id != "" {
		return id
	}
	return uuid.New().String()
}

func (e *Engine) writeEvent(d *PolicyDecision, textLength, toolCount int) {
	if e.writer == nil {
		return
	}

	ruleIDs := make([]string, 0, len(d.RuleTriggers))
	for _, t := range d.RuleTriggers {
		ruleIDs = append(ruleIDs, t.RuleID)
	}

	engineErr := false
	for _, c := range d.ReasonCodes {
		if c == ReasonEngineError {
			engineErr = true
		}
	}

	e.writer.Write(&audit.DecisionEvent{
		CorrelationID: d.CorrelationID,
		TenantID:      d.TenantID,
		Timestamp:     time.Now(),
		Decision:      d.Decision.String(),
		RawDecision:   d.RawDecision.String(),
		Mode:          d.Mode.String(),
		Preset:        d.Preset,
		ReasonCodes:   d.ReasonCodes,
		RuleIDs:       ruleIDs,
		TextLength:    uint32(textLength),
		ToolCount:     uint32(toolCount),
		Redacted:      d.Sanitized != nil,
		EngineError:   engineErr,
		LatencyMs:     d.DecisionMs,
	})
}
