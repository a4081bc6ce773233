// Package audit persists policy decisions and exposes operational metrics.
package audit

import (
	"time"

	"go.uber.org/zap"
)

// EventWriter is the sink for decision events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *DecisionEvent)
	Close()
}

// DecisionEvent is one Decide() outcome to be persisted for audit.
type DecisionEvent struct {
	CorrelationID string
	TenantID      string
	Timestamp     time.Time
	Decision      string // final decision after the compatibility gate
	RawDecision   string // pre-gate decision, kept so downgrades stay visible
	Mode          string
	Preset        string
	ReasonCodes   []string
	RuleIDs       []string
	TextLength    uint32
	ToolCount     uint32
	Redacted      bool
	EngineError   bool
	LatencyMs     float32
}

// LogWriter writes decision events to the structured log. Used when no
// ClickHouse DSN is configured, and as the fallback when the ClickHouse
// connection cannot be established.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(event *DecisionEvent) {
	w.logger.Info("policy decision",
		zap.String("correlation_id", event.CorrelationID),
		zap.String("tenant_id", event.TenantID),
		zap.String("decision", event.Decision),
		zap.String("raw_decision", event.RawDecision),
		zap.String("mode", event.Mode),
		zap.String("preset", event.Preset),
		zap.Strings("reason_codes", event.ReasonCodes),
		zap.Strings("rule_ids", event.RuleIDs),
		zap.Uint32("text_length", event.TextLength),
		zap.Uint32("tool_count", event.ToolCount),
		zap.Bool("redacted", event.Redacted),
		zap.Bool("engine_error", event.EngineError),
		zap.Float32("latency_ms", event.LatencyMs),
	)
}

func (w *LogWriter) Close() {}
