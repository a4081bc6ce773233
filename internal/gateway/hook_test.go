package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/policy"
	"go.uber.org/zap"
)

func newTestHook(t *testing.T) *Hook {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	yaml := `default_preset: baseline
presets:
  baseline:
    pii:
      email: mask
      credit_card: block
    injection_block_threshold: 6
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	src := config.NewPresetSource(config.NewStore(time.Minute, zap.NewNop()), path)
	return NewHook(policy.NewEngine(policy.EngineConfig{
		Presets:       src,
		DefaultPreset: "baseline",
		DefaultMode:   policy.ModeBlock,
		Logger:        zap.NewNop(),
	}))
}

func TestHook_AllowsAndSanitizes(t *testing.T) {
	h := newTestHook(t)

	req := &policy.Request{
		Messages: []*policy.Message{{Role: "user", Content: "mail me at a@b.com"}},
	}
	forward, decision, err := h.PreCall(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Decision != policy.DecisionAllow {
		t.Fatalf("decision = %v", decision.Decision)
	}
	if forward == req {
		t.Error("expected the sanitized copy to be forwarded")
	}
	if !strings.Contains(forward.Messages[0].Content, "<EMAIL_ADDRESS>") {
		t.Errorf("forwarded content = %q", forward.Messages[0].Content)
	}
}

func TestHook_BlocksWithoutLeakingContent(t *testing.T) {
	h := newTestHook(t)

	secret := "4111111111111111"
	req := &policy.Request{
		Messages: []*policy.Message{{Role: "user", Content: "my card is " + secret}},
	}
	forward, decision, err := h.PreCall(context.Background(), req)
	if forward != nil {
		t.Error("blocked requests must not be forwarded")
	}
	if err == nil {
		t.Fatal("expected a blocked error")
	}

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *BlockedError, got %T", err)
	}
	if strings.Contains(err.Error(), secret) {
		t.Error("refusal must not contain the offending content")
	}
	if !strings.Contains(err.Error(), "credit_card_detected") {
		t.Errorf("refusal should carry reason codes: %q", err.Error())
	}
	if blocked.CorrelationID != decision.CorrelationID {
		t.Error("refusal must carry the decision's correlation id")
	}
}

func TestHook_ToleratesMalformedMetadata(t *testing.T) {
	h := newTestHook(t)

	// nil request, nil metadata, nil message entries — none may panic.
	if _, d, _ := h.PreCall(context.Background(), nil); d == nil {
		t.Fatal("nil request must still yield a decision")
	}

	req := &policy.Request{Messages: []*policy.Message{nil, {Role: "user", Content: "hi"}}}
	if _, d, err := h.PreCall(context.Background(), req); err != nil || d == nil {
		t.Fatalf("partial request: err=%v", err)
	}
}
