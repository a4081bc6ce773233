package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the policy engine and pinning service.
var (
	// rampart_decisions_total{decision=allow|warn|block}
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rampart_decisions_total",
		Help: "Policy decisions by final outcome",
	}, []string{"decision"})

	// rampart_raw_decisions_total{decision} — pre-gate outcome, so observe/warn
	// rollouts still show what would have blocked.
	RawDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rampart_raw_decisions_total",
		Help: "Policy decisions before the compatibility gate",
	}, []string{"decision"})

	// rampart_rule_triggers_total{rule}
	RuleTriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rampart_rule_triggers_total",
		Help: "Rule trigger counts by rule id",
	}, []string{"rule"})

	// rampart_decision_seconds — wall clock duration of Decide()
	DecisionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rampart_decision_seconds",
		Help:    "Policy decision latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14), // 50µs .. ~400ms
	})

	// rampart_engine_errors_total — fail-closed conversions
	EngineErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rampart_engine_errors_total",
		Help: "Internal engine errors converted to BLOCK (fail-closed)",
	})

	// rampart_pins_total{outcome=ok|error}
	PinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rampart_pins_total",
		Help: "Tool catalog pin attempts by outcome",
	}, []string{"outcome"})
)

// RecordDecision records a completed Decide() call.
func RecordDecision(final, raw string, seconds float64) {
	DecisionsTotal.WithLabelValues(final).Inc()
	RawDecisionsTotal.WithLabelValues(raw).Inc()
	DecisionSeconds.Observe(seconds)
}

// RecordRuleTrigger counts one rule firing.
func RecordRuleTrigger(ruleID string) {
	RuleTriggersTotal.WithLabelValues(ruleID).Inc()
}

// RecordPin counts one Pin() attempt.
func RecordPin(err error) {
	if err != nil {
		PinsTotal.WithLabelValues("error").Inc()
		return
	}
	PinsTotal.WithLabelValues("ok").Inc()
}
