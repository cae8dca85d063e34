package window_test

import (
	"errors"
	"reflect"
	"testing"

	"lighthouse/src/window"
	"lighthouse/src/window/windowtest"
)

func buildMain(t *testing.T, host *windowtest.Host) *windowtest.Window {
	t.Helper()
	if _, err := host.Build(window.Spec{ID: "m", Label: window.LabelMain}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return host.Windows()[0]
}

func TestWithHiddenInstantRestoresOnSuccess(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)

	var visibleDuring bool
	err := window.WithHidden(w, quick(window.Instant), func() error {
		visibleDuring = w.Visible()
		return nil
	})
	if err != nil {
		t.Fatalf("WithHidden failed: %v", err)
	}
	if visibleDuring {
		t.Fatal("Expected window hidden while fn runs")
	}
	if !w.Visible() {
		t.Fatal("Expected window visible afterwards")
	}
}

func TestWithHiddenRestoresOnError(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)

	wantErr := errors.New("capture failed")
	err := window.WithHidden(w, quick(window.Instant), func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected %v, got %v", wantErr, err)
	}
	if !w.Visible() {
		t.Fatal("Expected window visible after failed capture")
	}
}

func TestWithHiddenRestoresOnPanic(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Expected panic to propagate")
			}
		}()
		_ = window.WithHidden(w, quick(window.Instant), func() error { panic("boom") })
	}()

	if !w.Visible() {
		t.Fatal("Expected window visible after panic")
	}
}

func TestSteppedFadeWalksOpacity(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)

	err := window.WithHidden(w, quick(window.Stepped), func() error {
		if w.Visible() {
			t.Error("Expected faded-out window during fn")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithHidden failed: %v", err)
	}

	want := []float64{0.5, 0.0, 0.5, 1.0}
	if !reflect.DeepEqual(w.Opacities, want) {
		t.Fatalf("Expected opacities %v, got %v", want, w.Opacities)
	}
	if w.HideCalls != 0 {
		t.Fatalf("Expected no Hide with opacity support, got %d", w.HideCalls)
	}
}

func TestSteppedFallsBackToInstant(t *testing.T) {
	host := &windowtest.Host{NoOpacity: true}
	h, _ := host.Build(window.Spec{ID: "m", Label: window.LabelMain})
	w := host.Windows()[0]

	if err := window.WithHidden(h, quick(window.Stepped), func() error { return nil }); err != nil {
		t.Fatalf("WithHidden failed: %v", err)
	}
	if w.HideCalls != 1 || w.ShowCalls != 1 {
		t.Fatalf("Expected one hide and one show, got %d/%d", w.HideCalls, w.ShowCalls)
	}
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)

	g, err := window.Hide(w, quick(window.Instant))
	if err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	_ = g.Release()
	_ = g.Release()
	if w.ShowCalls != 1 {
		t.Fatalf("Expected one show, got %d", w.ShowCalls)
	}
}

func TestHideFailureSkipsFn(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)
	w.HideErr = errors.New("cannot hide")

	ran := false
	err := window.WithHidden(w, quick(window.Instant), func() error {
		ran = true
		return nil
	})
	if err == nil || ran {
		t.Fatalf("Expected hide error and fn not run, got err=%v ran=%v", err, ran)
	}
}

func TestRestoreFailureSurfacesWhenFnSucceeded(t *testing.T) {
	host := &windowtest.Host{}
	w := buildMain(t, host)
	w.ShowErr = errors.New("cannot show")

	if err := window.WithHidden(w, quick(window.Instant), func() error { return nil }); err == nil {
		t.Fatal("Expected restore error")
	}
}
