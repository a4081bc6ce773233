package config

import (
	"gopkg.in/yaml.v3"
)

// PIIMode controls how one PII category is handled by the rule evaluator
// and the redactor.
type PIIMode string

const (
	PIIAllow PIIMode = "allow"
	PIIMask  PIIMode = "mask"
	PIIWarn  PIIMode = "warn"
	PIIBlock PIIMode = "block"
)

// DefaultInjectionBlockThreshold applies when a preset omits the threshold.
const DefaultInjectionBlockThreshold = 6

// PIIConfig holds the per-category handling modes. An empty mode means allow.
type PIIConfig struct {
	Email      PIIMode `yaml:"email"`
	Phone      PIIMode `yaml:"phone"`
	CreditCard PIIMode `yaml:"credit_card"`
	Medical    PIIMode `yaml:"medical"`
}

// Mode returns the mode for a category name, defaulting to allow.
func (c PIIConfig) Mode(category string) PIIMode {
	var m PIIMode
	switch category {
	case "email":
		m = c.Email
	case "phone":
		m = c.Phone
	case "credit_card":
		m = c.CreditCard
	case "medical":
		m = c.Medical
	}
	if m == "" {
		return PIIAllow
	}
	return m
}

// MCPConfig holds the preset's MCP tool-call restrictions.
type MCPConfig struct {
	RiskyToolNameRegex           string `yaml:"risky_tool_name_regex"`
	AutoApproveRequiresAllowlist bool   `yaml:"auto_approve_requires_allowlist"`
}

// Preset is one named policy configuration block.
type Preset struct {
	PII                     PIIConfig `yaml:"pii"`
	InjectionBlockThreshold int       `yaml:"injection_block_threshold"`
	MCP                     MCPConfig `yaml:"mcp"`
}

// BlockThreshold returns the injection block threshold, applying the default
// when the preset leaves it unset.
func (p Preset) BlockThreshold() int {
	if p.InjectionBlockThreshold <= 0 {
		return DefaultInjectionBlockThreshold
	}
	return p.InjectionBlockThreshold
}

// PresetFile is the parsed policy preset YAML.
type PresetFile struct {
	DefaultPreset string            `yaml:"default_preset"`
	Presets       map[string]Preset `yaml:"presets"`
}

// Resolve returns the named preset, falling back to the file's default and
// finally to a zero preset (no additional restriction from this axis). The
// returned name is the one actually resolved.
func (f *PresetFile) Resolve(name string) (string, Preset) {
	if f == nil {
		return "", Preset{}
	}
	if name == "" {
		name = f.DefaultPreset
	}
	if p, ok := f.Presets[name]; ok {
		return name, p
	}
	if p, ok := f.Presets[f.DefaultPreset]; ok {
		return f.DefaultPreset, p
	}
	return name, Preset{}
}

// ParsePresets is the ParseFunc for the preset YAML file.
func ParsePresets(data []byte) (any, error) {
	f := &PresetFile{}
	if len(data) == 0 {
		return f, nil
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return &PresetFile{}, err
	}
	return f, nil
}

// PresetSource binds a Store to the preset file path.
type PresetSource struct {
	store *Store
	path  string
}

// NewPresetSource creates a PresetSource reading path through store.
func NewPresetSource(store *Store, path string) *PresetSource {
	return &PresetSource{store: store, path: path}
}

// Presets returns the current preset file snapshot. Never nil.
func (s *PresetSource) Presets() *PresetFile {
	v, _ := s.store.Load(s.path, ParsePresets)
	f, ok := v.(*PresetFile)
	if !ok || f == nil {
		return &PresetFile{}
	}
	return f
}
