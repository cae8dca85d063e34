package events

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEmitTargetsWindow(t *testing.T) {
	bus := NewBus()
	var gotA, gotB int
	bus.Subscribe("a", OverlayData, func(Event) { gotA++ })
	bus.Subscribe("b", OverlayData, func(Event) { gotB++ })

	bus.Emit(Event{Name: OverlayData, Window: "a"})

	if gotA != 1 || gotB != 0 {
		t.Fatalf("Expected only window a to receive, got a=%d b=%d", gotA, gotB)
	}
}

func TestBroadcastReachesEveryWindow(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe("a", SelectionModeChanged, func(Event) { got = append(got, "a") })
	bus.Subscribe("b", SelectionModeChanged, func(Event) { got = append(got, "b") })
	bus.Subscribe("c", OverlayData, func(Event) { got = append(got, "c") })

	bus.Emit(Event{Name: SelectionModeChanged, Window: Broadcast, Payload: true})

	if len(got) != 2 {
		t.Fatalf("Expected 2 deliveries, got %v", got)
	}
}

func TestWildcardSubscriberSeesAllWindows(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.Subscribe(Broadcast, OverlayReady, func(Event) { count++ })

	bus.Emit(Event{Name: OverlayReady, Window: "x"})
	bus.Emit(Event{Name: OverlayReady, Window: "y"})

	if count != 2 {
		t.Fatalf("Expected 2, got %d", count)
	}
}

func TestOnceFiresOnceAndDetaches(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Once("w1", OverlayReady)
	defer cancel()

	bus.Emit(Event{Name: OverlayReady, Window: "w1"})
	bus.Emit(Event{Name: OverlayReady, Window: "w1"})

	select {
	case ev := <-ch:
		if ev.Window != "w1" {
			t.Fatalf("Expected event from w1, got %q", ev.Window)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected ready event")
	}

	select {
	case <-ch:
		t.Fatal("Did not expect a second delivery")
	default:
	}

	if n := bus.Count(); n != 0 {
		t.Fatalf("Expected subscription to be detached, %d left", n)
	}
}

func TestOnceCancelDropsSubscription(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Once("w1", ViewerReady)
	cancel()
	cancel()

	if n := bus.Count(); n != 0 {
		t.Fatalf("Expected 0 subscriptions, got %d", n)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsubscribe := bus.Subscribe("w", FullscreenData, func(Event) { count++ })
	bus.Emit(Event{Name: FullscreenData, Window: "w"})
	unsubscribe()
	bus.Emit(Event{Name: FullscreenData, Window: "w"})

	if count != 1 {
		t.Fatalf("Expected 1 delivery, got %d", count)
	}
}

func TestEmptyNameSubscribesToEverything(t *testing.T) {
	bus := NewBus()
	var names []string
	bus.Subscribe("w", "", func(ev Event) { names = append(names, ev.Name) })

	bus.Emit(Event{Name: OverlayData, Window: "w"})
	bus.Emit(Event{Name: SelectionModeChanged, Window: Broadcast})
	bus.Emit(Event{Name: OverlayData, Window: "other"})

	if len(names) != 2 {
		t.Fatalf("Expected 2 events, got %v", names)
	}
}
