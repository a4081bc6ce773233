package policy

import (
	"strings"

	"github.com/triage-ai/rampart/internal/config"
)

// Classifier extracts text and tool metadata from a raw request and resolves
// the active preset. Output is read-only; the request is never mutated.
type Classifier struct {
	presets       *config.PresetSource
	defaultPreset string
}

// NewClassifier creates a Classifier reading presets from src. defaultPreset
// applies when neither the request metadata nor the preset file names one.
func NewClassifier(src *config.PresetSource, defaultPreset string) *Classifier {
	return &Classifier{presets: src, defaultPreset: defaultPreset}
}

// Classify builds the Classification for a request: all message contents
// newline-joined in order, the resolved preset, and tool presence.
func (c *Classifier) Classify(req *Request) *Classification {
	var b strings.Builder
	wrote := false
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		if wrote {
			b.WriteByte('\n')
		}
		b.WriteString(m.Content)
		wrote = true
	}
	text := b.String()

	requested := req.meta(MetaPreset)
	if requested == "" {
		requested = c.defaultPreset
	}
	name, preset := c.presets.Presets().Resolve(requested)

	return &Classification{
		Text:        text,
		TextLength:  len(text),
		PresetName:  name,
		Preset:      preset,
		Tools:       req.Tools,
		ToolCount:   len(req.Tools),
		HasTools:    len(req.Tools) > 0,
		MCPServerID: req.meta(MetaMCPServerID),
	}
}
