package policy

import (
	"regexp"
	"sync"

	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/detect"
	"go.uber.org/zap"
)

// ToolCatalog exposes the pinned tool information the registry-backed rules
// consult for tool-call requests. Implementations must serve a stable,
// already-committed snapshot, never a partially-pinned one.
type ToolCatalog interface {
	// ToolCategory returns the pinned category for a server's tool.
	// ok is false when the server or tool is not pinned.
	ToolCategory(serverID, toolName string) (category detect.ToolCategory, ok bool)

	// RequiresApproval reports whether the tool is on the server's
	// human-in-the-loop list.
	RequiresApproval(serverID, toolName string) bool
}

// rule is one ordered step of the evaluator. A rule may only raise the
// running decision; returning zero means no change.
type rule interface {
	ID() string
	Evaluate(c *Classification) (Decision, []string, []RuleTrigger)
}

// RuleEvaluator applies the fixed rule order and accumulates reason codes
// and triggers. Rules are independent: none depends on another's output
// beyond decision escalation, so trigger ordering is deterministic.
type RuleEvaluator struct {
	rules  []rule
	logger *zap.Logger
}

// NewRuleEvaluator builds the evaluator with the standard rule order.
// catalog may be nil when no tool registry is wired in.
func NewRuleEvaluator(catalog ToolCatalog, logger *zap.Logger) *RuleEvaluator {
	rules := []rule{
		&injectionRule{},
		&creditCardRule{scanner: detect.NewCardScanner()},
		&piiModeRule{category: "email", scanner: detect.NewEmailScanner(), reason: ReasonEmail},
		&piiModeRule{category: "phone", scanner: detect.NewPhoneScanner(), reason: ReasonPhone},
		&piiModeRule{category: "medical", scanner: detect.NewMedicalScanner(), reason: ReasonMedicalTerm},
		&riskyToolRule{logger: logger},
	}
	if catalog != nil {
		rules = append(rules, &registryToolRule{catalog: catalog})
	}
	return &RuleEvaluator{rules: rules, logger: logger}
}

// Evaluate runs all rules in order and returns the raw (pre-gate) decision,
// the reason codes, and the trigger evidence.
func (e *RuleEvaluator) Evaluate(c *Classification) (Decision, []string, []RuleTrigger) {
	decision := DecisionAllow
	var reasons []string
	var triggers []RuleTrigger

	for _, r := range e.rules {
		d, ruleReasons, trig := r.Evaluate(c)
		if d == 0 {
			continue
		}
		decision = escalate(decision, d)
		for _, reason := range ruleReasons {
			reasons = appendReason(reasons, reason)
		}
		triggers = append(triggers, trig...)
	}

	return decision, reasons, triggers
}

// --- Rule 1: prompt injection score vs preset threshold ---

type injectionRule struct{}

func (r *injectionRule) ID() string { return "injection" }

func (r *injectionRule) Evaluate(c *Classification) (Decision, []string, []RuleTrigger) {
	ev := detect.ScoreInjection(c.Text)
	threshold := c.Preset.BlockThreshold()
	if ev.Score < threshold {
		return 0, nil, nil
	}
	return DecisionBlock, []string{ReasonPromptInjection}, []RuleTrigger{{
		RuleID:    r.ID(),
		Score:     ev.Score,
		Threshold: threshold,
	}}
}

// --- Rule 2: Luhn-valid credit card under a block-mode preset ---

type creditCardRule struct {
	scanner detect.PIIScanner
}

func (r *creditCardRule) ID() string { return "credit_card" }

func (r *creditCardRule) Evaluate(c *Classification) (Decision, []string, []RuleTrigger) {
	if c.Preset.PII.Mode("credit_card") != config.PIIBlock {
		return 0, nil, nil
	}
	hits := r.scanner.Find(c.Text)
	if len(hits) == 0 {
		return 0, nil, nil
	}
	return DecisionBlock, []string{ReasonCreditCard}, []RuleTrigger{{
		RuleID: r.ID(),
		Count:  len(hits),
	}}
}

// --- Rule 3: email/phone/medical under block or warn modes ---
// mask and allow produce no decision change here; masking is the redactor's
// job after the gate.

type piiModeRule struct {
	category string
	scanner  detect.PIIScanner
	reason   string
}

func (r *piiModeRule) ID() string { return r.category }

func (r *piiModeRule) Evaluate(c *Classification) (Decision, []string, []RuleTrigger) {
	mode := c.Preset.PII.Mode(r.category)
	if mode != config.PIIBlock && mode != config.PIIWarn {
		return 0, nil, nil
	}
	hits := r.scanner.Find(c.Text)
	if len(hits) == 0 {
		return 0, nil, nil
	}
	decision := DecisionWarn
	if mode == config.PIIBlock {
		decision = DecisionBlock
	}
	return decision, []string{r.reason}, []RuleTrigger{{
		RuleID: r.ID(),
		Count:  len(hits),
	}}
}

// --- Rule 4: preset risky-tool-name regex ---

// Compiled risky-tool patterns, cached per pattern string. Presets change
// rarely; requests arrive constantly.
var riskyToolRegexCache sync.Map // string → *regexp.Regexp (nil for invalid)

func compileRiskyToolRegex(pattern string, logger *zap.Logger) *regexp.Regexp {
	if v, ok := riskyToolRegexCache.Load(pattern); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		logger.Warn("invalid risky_tool_name_regex in preset, rule disabled",
			zap.String("pattern", pattern),
			zap.Error(err),
		)
		re = nil
	}
	riskyToolRegexCache.Store(pattern, re)
	return re
}

type riskyToolRule struct {
	logger *zap.Logger
}

func (r *riskyToolRule) ID() string { return "risky_tool" }

func (r *riskyToolRule) Evaluate(c *Classification) (Decision, []string, []RuleTrigger) {
	pattern := c.Preset.MCP.RiskyToolNameRegex
	if pattern == "" || !c.HasTools {
		return 0, nil, nil
	}
	re := compileRiskyToolRegex(pattern, r.logger)
	if re == nil {
		return 0, nil, nil
	}

	var triggers []RuleTrigger
	for _, tool := range c.Tools {
		if re.MatchString(tool.Name) {
			triggers = append(triggers, RuleTrigger{
				RuleID:   r.ID(),
				ToolName: tool.Name,
			})
		}
	}
	if len(triggers) == 0 {
		return 0, nil, nil
	}
	return DecisionBlock, []string{ReasonRiskyTool}, triggers
}

// --- Rule 5: pinned registry categories for the named MCP server ---

type registryToolRule struct {
	catalog ToolCatalog
}

func (r *registryToolRule) ID() string { return "registry_tool" }

func (r *registryToolRule) Evaluate(c *Classification) (Decision, []string, []RuleTrigger) {
	if c.MCPServerID == "" || !c.HasTools {
		return 0, nil, nil
	}

	decision := Decision(0)
	var hasDangerous, hasHITL bool
	var triggers []RuleTrigger
	for _, tool := range c.Tools {
		category, ok := r.catalog.ToolCategory(c.MCPServerID, tool.Name)
		if !ok {
			continue
		}
		if category == detect.ToolDangerous {
			decision = escalate(decision, DecisionBlock)
			hasDangerous = true
			triggers = append(triggers, RuleTrigger{RuleID: r.ID(), ToolName: tool.Name})
			continue
		}
		if r.catalog.RequiresApproval(c.MCPServerID, tool.Name) {
			decision = escalate(decision, DecisionWarn)
			hasHITL = true
			triggers = append(triggers, RuleTrigger{RuleID: r.ID(), ToolName: tool.Name})
		}
	}
	if decision == 0 {
		return 0, nil, nil
	}
	// Both codes surface when both conditions fire; a dangerous tool must
	// not hide an approval-required one.
	var reasons []string
	if hasDangerous {
		reasons = append(reasons, ReasonDangerousTool)
	}
	if hasHITL {
		reasons = append(reasons, ReasonToolNeedsApproval)
	}
	return decision, reasons, triggers
}
