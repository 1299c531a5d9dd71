package signin

import (
	"strings"
	"testing"
	"time"
)

func TestTypewriter_RevealsText(t *testing.T) {
	tw := newTypewriter("notes", 80*time.Millisecond)
	if tw.Start() == nil {
		t.Fatal("Start should schedule a tick")
	}
	run := tw.run
	for i := 0; i < 5; i++ {
		if tw.Done() {
			t.Fatalf("done after %d ticks", i)
		}
		tw.Update(typewriterTickMsg{Run: run})
	}
	if !tw.Done() {
		t.Fatal("expected all text shown")
	}
	if !strings.Contains(tw.View(), "notes") {
		t.Errorf("View() = %q", tw.View())
	}

	// Cursor blinks once done
	on := tw.cursorOn
	if tw.Update(typewriterTickMsg{Run: run}) == nil {
		t.Error("blink should keep ticking")
	}
	if tw.cursorOn == on {
		t.Error("cursor did not toggle")
	}
}

func TestTypewriter_StaleTicksIgnored(t *testing.T) {
	tw := newTypewriter("abc", time.Millisecond)
	tw.Start()
	old := tw.run
	tw.Stop()

	if tw.Update(typewriterTickMsg{Run: old}) != nil {
		t.Error("tick from a stopped run should be dropped")
	}
	if tw.shown != 0 {
		t.Errorf("shown = %d, want 0", tw.shown)
	}
}
