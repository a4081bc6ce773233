package policy

import "testing"

func TestClassifier_JoinsMessagesInOrder(t *testing.T) {
	c := NewClassifier(newTestPresetSource(t, testPolicyYAML), "baseline")

	req := &Request{Messages: []*Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Hello there"},
		{Role: "assistant", Content: "Hi!"},
	}}

	cls := c.Classify(req)
	want := "You are a helpful assistant.\nHello there\nHi!"
	if cls.Text != want {
		t.Errorf("text = %q, want %q", cls.Text, want)
	}
	if cls.TextLength != len(want) {
		t.Errorf("text length = %d, want %d", cls.TextLength, len(want))
	}
}

func TestClassifier_SkipsNilMessagesWithoutSeparators(t *testing.T) {
	c := NewClassifier(newTestPresetSource(t, testPolicyYAML), "baseline")

	// A leading nil entry must not leave a stray separator.
	req := &Request{Messages: []*Message{
		nil,
		{Role: "user", Content: "Hello"},
		nil,
		{Role: "assistant", Content: "Hi!"},
	}}

	cls := c.Classify(req)
	if want := "Hello\nHi!"; cls.Text != want {
		t.Errorf("text = %q, want %q", cls.Text, want)
	}
}

func TestClassifier_ResolvesPresetFromMetadata(t *testing.T) {
	c := NewClassifier(newTestPresetSource(t, testPolicyYAML), "baseline")

	req := userMessage("hi")
	req.Metadata[MetaPreset] = "permissive"

	cls := c.Classify(req)
	if cls.PresetName != "permissive" {
		t.Errorf("preset = %q, want permissive", cls.PresetName)
	}
	if cls.Preset.BlockThreshold() != 99 {
		t.Errorf("threshold = %d, want 99", cls.Preset.BlockThreshold())
	}
}

func TestClassifier_FallsBackToDefaultPreset(t *testing.T) {
	c := NewClassifier(newTestPresetSource(t, testPolicyYAML), "baseline")

	// No preset in metadata
	cls := c.Classify(userMessage("hi"))
	if cls.PresetName != "baseline" {
		t.Errorf("preset = %q, want baseline", cls.PresetName)
	}

	// Unknown preset in metadata falls back to the file default
	req := userMessage("hi")
	req.Metadata[MetaPreset] = "no_such_preset"
	if cls := c.Classify(req); cls.PresetName != "baseline" {
		t.Errorf("preset = %q, want baseline", cls.PresetName)
	}
}

func TestClassifier_ToolMetadata(t *testing.T) {
	c := NewClassifier(newTestPresetSource(t, testPolicyYAML), "baseline")

	req := userMessage("use the tools")
	req.Tools = []Tool{{Name: "get_weather"}, {Name: "create_ticket"}}
	req.Metadata[MetaMCPServerID] = "srv-1"

	cls := c.Classify(req)
	if !cls.HasTools || cls.ToolCount != 2 {
		t.Errorf("tool metadata wrong: %+v", cls)
	}
	if cls.MCPServerID != "srv-1" {
		t.Errorf("server id = %q", cls.MCPServerID)
	}
}

func TestClassifier_NeverMutatesRequest(t *testing.T) {
	c := NewClassifier(newTestPresetSource(t, testPolicyYAML), "baseline")

	msg := &Message{Role: "user", Content: "original"}
	req := &Request{Messages: []*Message{msg, nil}}
	_ = c.Classify(req)

	if msg.Content != "original" || len(req.Messages) != 2 {
		t.Error("classification mutated the request")
	}
}
