package detect

import "regexp"

// Poisoning patterns in tool descriptions — exfiltration or prompt-override
// language planted by a compromised MCP server. Checked before name-based
// categorization so a poisoned description always wins.
var poisoningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(send|forward|post|upload|exfiltrate|transmit)\b.{0,60}\b(secret|credential|token|password|api.?key|private.?key)`),
	regexp.MustCompile(`(?i)(read|access|include)\b.{0,40}\b(\.env|ssh.?key|credentials?\s+file)`),
	regexp.MustCompile(`(?i)(ignore|override|disregard)\b.{0,40}\b(instructions?|system\s+prompt)`),
	regexp.MustCompile(`(?i)do\s+not\s+(tell|inform|mention|alert)\b.{0,40}\buser`),
	regexp.MustCompile(`(?i)before\s+(using|calling)\s+this\s+tool.{0,60}(first|always)`),
}

var (
	destructiveNameRe = regexp.MustCompile(`(?i)(delete|drop|remove|destroy|kill|terminat|wipe|purge|erase|revoke|shutdown|uninstall|format)`)
	mutatingNameRe    = regexp.MustCompile(`(?i)(create|update|insert|post|put|patch|write|set_|add|send|deploy|transfer|charge|pay|execute|run|modify|upsert|publish|upload)`)
)

// ClassifyTool assigns exactly one risk category to a tool. Poisoned or
// destructive tools are dangerous, mutating tools are write, the rest read.
func ClassifyTool(name, description string) ToolCategory {
	for _, p := range poisoningPatterns {
		if p.MatchString(description) {
			return ToolDangerous
		}
	}
	if destructiveNameRe.MatchString(name) {
		return ToolDangerous
	}
	if mutatingNameRe.MatchString(name) {
		return ToolWrite
	}
	return ToolRead
}
