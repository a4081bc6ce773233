package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore_CachesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writeFile(t, path, "default_preset: strict\npresets:\n  strict: {}\n")

	s := NewStore(time.Hour, zap.NewNop())
	src := NewPresetSource(s, path)

	if got := src.Presets().DefaultPreset; got != "strict" {
		t.Fatalf("expected strict, got %q", got)
	}

	// Same mtime + fresh TTL: identical snapshot reference is reused.
	first, _ := s.Load(path, ParsePresets)
	second, _ := s.Load(path, ParsePresets)
	if first != second {
		t.Error("expected cached snapshot to be reused")
	}
}

func TestStore_ReloadsOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writeFile(t, path, "default_preset: a\npresets:\n  a: {}\n")

	s := NewStore(time.Hour, zap.NewNop())
	src := NewPresetSource(s, path)
	if got := src.Presets().DefaultPreset; got != "a" {
		t.Fatalf("expected a, got %q", got)
	}

	writeFile(t, path, "default_preset: b\npresets:\n  b: {}\n")
	// Force an mtime difference regardless of filesystem timestamp granularity.
	past := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	if got := src.Presets().DefaultPreset; got != "b" {
		t.Errorf("expected reload to pick up b, got %q", got)
	}
}

func TestStore_MissingFileDegradesToEmpty(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())
	src := NewPresetSource(s, filepath.Join(t.TempDir(), "nope.yaml"))

	f := src.Presets()
	if f == nil {
		t.Fatal("expected empty preset file, got nil")
	}
	if f.DefaultPreset != "" || len(f.Presets) != 0 {
		t.Errorf("expected zero value, got %+v", f)
	}
}

func TestStore_CorruptFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writeFile(t, path, "{ this is : not yaml ]\n\t")

	s := NewStore(time.Minute, zap.NewNop())
	f := NewPresetSource(s, path).Presets()
	if f == nil || len(f.Presets) != 0 {
		t.Errorf("expected empty preset file for corrupt input, got %+v", f)
	}
}

func TestStore_InvalidateForcesReread(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writeFile(t, path, "default_preset: a\npresets:\n  a: {}\n")

	s := NewStore(time.Hour, zap.NewNop())
	first, _ := s.Load(path, ParsePresets)
	s.Invalidate(path)
	second, _ := s.Load(path, ParsePresets)
	if first == second {
		t.Error("expected a fresh snapshot after Invalidate")
	}
}

func TestStore_WatchRunsUntilCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	writeFile(t, path, "default_preset: a\npresets:\n  a: {}\n")

	s := NewStore(time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, path) }()

	// Watch must keep running while the context is live; callers that
	// invoke it inline instead of in a goroutine would block here forever.
	select {
	case err := <-done:
		t.Fatalf("Watch returned with a live context: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestPresetFile_Resolve(t *testing.T) {
	f := &PresetFile{
		DefaultPreset: "baseline",
		Presets: map[string]Preset{
			"baseline": {InjectionBlockThreshold: 6},
			"strict":   {InjectionBlockThreshold: 4},
		},
	}

	name, p := f.Resolve("strict")
	if name != "strict" || p.InjectionBlockThreshold != 4 {
		t.Errorf("Resolve(strict) = %q %+v", name, p)
	}

	name, p = f.Resolve("")
	if name != "baseline" || p.InjectionBlockThreshold != 6 {
		t.Errorf("Resolve(empty) = %q %+v", name, p)
	}

	name, _ = f.Resolve("missing")
	if name != "baseline" {
		t.Errorf("Resolve(missing) should fall back to default, got %q", name)
	}

	var nilFile *PresetFile
	if _, p := nilFile.Resolve("anything"); p.BlockThreshold() != DefaultInjectionBlockThreshold {
		t.Error("nil file should resolve to zero preset with default threshold")
	}
}

func TestPIIConfig_Mode(t *testing.T) {
	c := PIIConfig{Email: PIIMask, CreditCard: PIIBlock}
	if c.Mode("email") != PIIMask {
		t.Error("email should be mask")
	}
	if c.Mode("credit_card") != PIIBlock {
		t.Error("credit_card should be block")
	}
	if c.Mode("phone") != PIIAllow {
		t.Error("unset phone should default to allow")
	}
	if c.Mode("unknown") != PIIAllow {
		t.Error("unknown category should default to allow")
	}
}
