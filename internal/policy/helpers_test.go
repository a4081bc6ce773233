package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/detect"
	"go.uber.org/zap"
)

const testPolicyYAML = `default_preset: baseline
presets:
  baseline:
    pii:
      email: mask
      phone: mask
      credit_card: block
    injection_block_threshold: 6
    mcp:
      risky_tool_name_regex: "(?i)delete|drop"
  permissive:
    pii:
      email: allow
      phone: allow
      credit_card: allow
    injection_block_threshold: 99
  warning:
    pii:
      email: warn
      phone: warn
      credit_card: block
`

func newTestPresetSource(t *testing.T, yaml string) *config.PresetSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	return config.NewPresetSource(config.NewStore(time.Minute, zap.NewNop()), path)
}

func newTestEngine(t *testing.T, catalog ToolCatalog) *Engine {
	t.Helper()
	return NewEngine(EngineConfig{
		Presets:       newTestPresetSource(t, testPolicyYAML),
		DefaultPreset: "baseline",
		DefaultMode:   ModeBlock,
		Catalog:       catalog,
		Logger:        zap.NewNop(),
	})
}

func userMessage(content string) *Request {
	return &Request{
		Messages: []*Message{{Role: "user", Content: content}},
		Metadata: map[string]string{},
	}
}

// fakeCatalog is a ToolCatalog stub for the registry-backed rules.
type fakeCatalog struct {
	categories map[string]detect.ToolCategory // "server/tool" → category
	hitl       map[string]bool
	panics     bool
}

func (f *fakeCatalog) ToolCategory(serverID, toolName string) (detect.ToolCategory, bool) {
	if f.panics {
		panic("catalog blew up")
	}
	c, ok := f.categories[serverID+"/"+toolName]
	return c, ok
}

func (f *fakeCatalog) RequiresApproval(serverID, toolName string) bool {
	return f.hitl[serverID+"/"+toolName]
}
