package window_test

import (
	"errors"
	"testing"
	"time"

	"lighthouse/src/window"
	"lighthouse/src/window/windowtest"
)

func TestReplaceKeepsOneWindowPerLabel(t *testing.T) {
	host := &windowtest.Host{}
	m := window.NewManager(host)

	first, err := m.Replace(window.Spec{Label: window.LabelOverlay})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	second, err := m.Replace(window.Spec{Label: window.LabelOverlay})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	built := host.Windows()
	if len(built) != 2 {
		t.Fatalf("Expected 2 builds, got %d", len(built))
	}
	if !built[0].Closed() {
		t.Fatal("Expected first overlay to be closed")
	}
	if first.ID() == second.ID() {
		t.Fatal("Expected distinct instance ids")
	}
	got, ok := m.Get(window.LabelOverlay)
	if !ok || got.ID() != second.ID() {
		t.Fatalf("Expected registry to hold the second overlay")
	}
	if n := len(m.Labels()); n != 1 {
		t.Fatalf("Expected 1 label, got %d", n)
	}
}

func TestReplaceSwallowsCloseFailure(t *testing.T) {
	host := &windowtest.Host{}
	m := window.NewManager(host)

	first, _ := m.Replace(window.Spec{Label: window.LabelViewer})
	// Closed behind the manager's back: the next close fails.
	first.(*windowtest.Window).Close()

	if _, err := m.Replace(window.Spec{Label: window.LabelViewer}); err != nil {
		t.Fatalf("Expected close failure to be ignored, got %v", err)
	}
}

func TestReplaceBuildFailure(t *testing.T) {
	host := &windowtest.Host{BuildErr: errors.New("no display")}
	m := window.NewManager(host)

	if _, err := m.Replace(window.Spec{Label: window.LabelOverlay}); err == nil {
		t.Fatal("Expected build error")
	}
	if _, ok := m.Get(window.LabelOverlay); ok {
		t.Fatal("Expected nothing registered after a failed build")
	}
}

func TestSelfCloseReleasesOnlyItsOwnEntry(t *testing.T) {
	host := &windowtest.Host{}
	m := window.NewManager(host)

	closedCount := 0
	h, _ := m.Replace(window.Spec{Label: window.LabelOverlay, OnClosed: func() { closedCount++ }})
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := m.Get(window.LabelOverlay); ok {
		t.Fatal("Expected self-closed overlay to be released")
	}
	if closedCount != 1 {
		t.Fatalf("Expected OnClosed once, got %d", closedCount)
	}

	a, _ := m.Replace(window.Spec{Label: window.LabelOverlay})
	b, _ := m.Replace(window.Spec{Label: window.LabelOverlay})
	m.Release(window.LabelOverlay, a.ID())
	if got, ok := m.Get(window.LabelOverlay); !ok || got.ID() != b.ID() {
		t.Fatal("Stale release must not drop the replacement")
	}
}

func TestCloseAbsentLabel(t *testing.T) {
	m := window.NewManager(&windowtest.Host{})
	if err := m.Close(window.LabelSettings); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	host := &windowtest.Host{}
	h, _ := host.Build(window.Spec{ID: "main-1", Label: window.LabelMain})
	m := window.NewManager(host)
	m.Register(h)
	if got, ok := m.Get(window.LabelMain); !ok || got.ID() != "main-1" {
		t.Fatal("Expected main window to be registered")
	}
}

func TestIgnoreFailure(t *testing.T) {
	called := false
	window.IgnoreFailure("do nothing", func() error {
		called = true
		return errors.New("boom")
	})
	if !called {
		t.Fatal("Expected fn to run")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want window.Mode
	}{
		{"stepped", window.Stepped},
		{"instant", window.Instant},
		{"", window.Instant},
		{"fancy", window.Instant},
	}
	for _, tt := range tests {
		if got := window.ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func quick(mode window.Mode) window.Strategy {
	s := window.DefaultStrategy(mode)
	s.StepDelay = time.Millisecond
	s.Settle = 0
	return s
}
