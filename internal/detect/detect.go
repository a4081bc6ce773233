// Package detect holds the stateless analyzers behind the policy engine:
// an injection scorer, PII scanners, and a tool-risk classifier. Every
// detector is a pure function of its input so results are reproducible
// and safe to compute concurrently.
package detect

// ToolCategory classifies a tool by the worst thing it can plausibly do.
type ToolCategory string

const (
	ToolRead      ToolCategory = "read"
	ToolWrite     ToolCategory = "write"
	ToolDangerous ToolCategory = "dangerous"
)

// PIIScanner finds and masks spans of one PII category in free text.
type PIIScanner interface {
	// Category returns the scanner's identifier ("email", "phone", ...).
	Category() string

	// Find returns the matched substrings, in order of appearance.
	Find(text string) []string

	// Redact replaces every match with the category placeholder.
	// The bool reports whether anything changed.
	Redact(text string) (string, bool)
}
