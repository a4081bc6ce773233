package policy

// Mode is the operator-selected compatibility mode controlling how strictly
// raw decisions are enforced during rollout.
type Mode int

const (
	ModeObserve Mode = iota + 1
	ModeWarn
	ModeBlock
)

// FallbackMode is the mode used when a configured or per-request mode string
// does not parse. Defaulting to full enforcement keeps an operator typo from
// silently disabling blocking.
const FallbackMode = ModeBlock

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeObserve:
		return "observe"
	case ModeWarn:
		return "warn"
	case ModeBlock:
		return "block"
	default:
		return "unspecified"
	}
}

// ParseMode parses a mode string, returning FallbackMode for anything
// unrecognized (including the empty string).
func ParseMode(s string) Mode {
	switch s {
	case "observe":
		return ModeObserve
	case "warn":
		return ModeWarn
	case "block":
		return ModeBlock
	default:
		return FallbackMode
	}
}

// ApplyMode maps a raw decision through the compatibility mode. It is
// idempotent and monotonic: it can only relax a BLOCK, never escalate a
// lesser decision.
//
//	observe: BLOCK → ALLOW (staged rollout, zero blast radius)
//	warn:    BLOCK → WARN  (non-breaking rollout)
//	block:   identity      (full enforcement)
func ApplyMode(d Decision, m Mode) Decision {
	if d != DecisionBlock {
		return d
	}
	switch m {
	case ModeObserve:
		return DecisionAllow
	case ModeWarn:
		return DecisionWarn
	default:
		return DecisionBlock
	}
}
