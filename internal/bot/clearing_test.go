package bot

import (
	"image"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestClearingFirstStepMissing(t *testing.T) {
	h := newHarness()
	e := h.engine()

	if e.clearInventory() {
		t.Fatalf("clearInventory should fail when inventory did not open")
	}

	// 状态切换发生在打开背包之前
	want := []string{"status:clearing", "down:t", "up:t", "down:esc", "up:esc"}
	if got := h.rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(h.vision.matchCalls, []string{TemplateSellMode}) {
		t.Errorf("match calls = %v", h.vision.matchCalls)
	}
}

func TestClearingLaterStepMissing(t *testing.T) {
	h := newHarness()
	h.vision.matches[TemplateSellMode] = image.Pt(100, 100)
	h.vision.matches[TemplateCheck] = image.Pt(200, 200)
	h.vision.matches[TemplateConfirm] = image.Pt(300, 300)
	e := h.engine()

	if !e.clearInventory() {
		t.Fatalf("clearInventory should succeed when only a later step is missing")
	}

	want := []string{
		"status:clearing",
		"down:t", "up:t",
		"click:100,100",
		"click:200,200",
		"click:300,300",
		"down:esc", "up:esc",
	}
	if got := h.rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	wantSleeps := []time.Duration{inventoryOpen, time.Second, time.Second, 2 * time.Second, inventoryClose}
	if !reflect.DeepEqual(h.clock.slept, wantSleeps) {
		t.Errorf("slept = %v, want %v", h.clock.slept, wantSleeps)
	}
}

func TestClearingStopsBetweenSteps(t *testing.T) {
	h := newHarness()
	h.stop.Stop()
	e := h.engine()

	if e.clearInventory() {
		t.Fatalf("clearInventory should report false when stopped")
	}
	if len(h.vision.matchCalls) != 0 {
		t.Errorf("match calls = %v, want none", h.vision.matchCalls)
	}
	if got := h.rec.list(); len(got) != 0 {
		t.Errorf("inventory must stay closed after stop, events = %v", got)
	}
}

func TestInventoryFullStoppedIsNotFatal(t *testing.T) {
	h := newHarness()
	h.vision.matches[TemplateFullWarning] = image.Pt(0, 0)
	h.stop.Stop()
	e := h.engine()

	if err := e.onInventoryFull(image.Point{}); err != nil {
		t.Errorf("onInventoryFull err = %v, want nil when stopped", err)
	}
}

func TestParseClearingSteps(t *testing.T) {
	data := []byte(`
steps:
  - template: btn_sell_mode
    description: 贩卖模式
    pause: 1.5
  - template: btn_confirm
    pause: 0.25
`)
	steps, err := ParseClearingSteps(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []ClearingStep{
		{Template: "btn_sell_mode", Description: "贩卖模式", Pause: 1500 * time.Millisecond},
		{Template: "btn_confirm", Pause: 250 * time.Millisecond},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("steps = %+v, want %+v", steps, want)
	}
}

func TestParseClearingStepsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":            ``,
		"no steps":         `steps: []`,
		"missing template": "steps:\n  - pause: 1\n",
		"negative pause":   "steps:\n  - template: btn_check\n    pause: -1\n",
		"not yaml":         "steps: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseClearingSteps([]byte(data)); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestLoadClearingStepsFallback(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("steps: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"", filepath.Join(dir, "missing.yaml"), bad} {
		if got := LoadClearingSteps(path); !reflect.DeepEqual(got, DefaultClearingSteps()) {
			t.Errorf("LoadClearingSteps(%q) = %+v, want defaults", path, got)
		}
	}

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("steps:\n  - template: btn_confirm\n    pause: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := LoadClearingSteps(good)
	if len(got) != 1 || got[0].Template != "btn_confirm" || got[0].Pause != 2*time.Second {
		t.Errorf("LoadClearingSteps(good) = %+v", got)
	}
}
