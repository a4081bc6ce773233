package policy

import (
	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/detect"
)

// Redactor masks detected PII in requests that are allowed or warned
// through. It uses the same scanners as the detection rules, so masking and
// detection can never disagree.
type Redactor struct {
	scanners []detect.PIIScanner
}

// NewRedactor creates a Redactor covering every PII category.
func NewRedactor() *Redactor {
	return &Redactor{
		scanners: []detect.PIIScanner{
			detect.NewEmailScanner(),
			detect.NewPhoneScanner(),
			detect.NewCardScanner(),
			detect.NewMedicalScanner(),
		},
	}
}

// Redact returns a sanitized copy of req with every mask-mode PII category
// replaced by its placeholder. Messages whose content did not change keep
// their original pointer, so callers can cheaply detect what was altered.
// Returns nil when no category is configured for masking, letting callers
// distinguish "nothing to redact" from "redaction changed nothing".
func (r *Redactor) Redact(req *Request, pii config.PIIConfig) *Request {
	var active []detect.PIIScanner
	for _, s := range r.scanners {
		if pii.Mode(s.Category()) == config.PIIMask {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil
	}

	messages := make([]*Message, len(req.Messages))
	for i, m := range req.Messages {
		if m == nil {
			continue
		}
		content := m.Content
		changed := false
		for _, s := range active {
			next, did := s.Redact(content)
			if did {
				content = next
				changed = true
			}
		}
		if changed {
			messages[i] = &Message{Role: m.Role, Content: content}
		} else {
			messages[i] = m
		}
	}

	return &Request{
		Messages: messages,
		Tools:    req.Tools,
		Metadata: req.Metadata,
	}
}
