package events

import (
	"log"
	"sync"
)

// Event names shared by the app and window content.
const (
	OverlayReady             = "overlay-ready"
	ViewerReady              = "viewer-ready"
	OverlayData              = "overlay-data"
	FullscreenData           = "fullscreen-data"
	SelectionModeChanged     = "selection-mode-changed"
	ProceedShortcutTriggered = "proceed-shortcut-triggered"
)

// Inbound reports whether name is sent by window content to the app rather
// than the other way round.
func Inbound(name string) bool {
	return name == OverlayReady || name == ViewerReady
}

// Broadcast is the empty window id: the event concerns every window.
const Broadcast = ""

// Event is a named signal travelling between the app and one window instance.
// Window is the instance id the event comes from (ready signals) or goes to
// (data pushes), or Broadcast for app-wide events.
type Event struct {
	Name    string `json:"event"`
	Window  string `json:"window,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type subscription struct {
	id     uint64
	window string
	name   string
	fn     func(Event)
}

// Bus is an in-process fan-out of window events.
//
// A subscription for window W receives events addressed to W and broadcasts.
// A subscription with window Broadcast receives every event of that name.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*subscription)}
}

// Subscribe registers fn for events named name, or for every event when name
// is empty. The returned func unsubscribes and is safe to call more than once.
func (b *Bus) Subscribe(window, name string, fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = &subscription{id: id, window: window, name: name, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Once returns a channel that receives the first matching event and is then
// detached. The cancel func drops the subscription if it never fired.
func (b *Bus) Once(window, name string) (<-chan Event, func()) {
	ch := make(chan Event, 1)
	var once sync.Once
	var unsubscribe func()
	assigned := make(chan struct{})

	unsubscribe = b.Subscribe(window, name, func(ev Event) {
		once.Do(func() {
			ch <- ev
			<-assigned
			unsubscribe()
		})
	})
	close(assigned)

	return ch, unsubscribe
}

// Emit delivers ev synchronously to every matching subscriber.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	matched := make([]func(Event), 0, 2)
	for _, s := range b.subs {
		if s.name != "" && s.name != ev.Name {
			continue
		}
		if s.window == Broadcast || ev.Window == Broadcast || s.window == ev.Window {
			matched = append(matched, s.fn)
		}
	}
	b.mu.Unlock()

	if len(matched) == 0 {
		log.Printf("events: %s for window %q has no listeners", ev.Name, ev.Window)
		return
	}
	for _, fn := range matched {
		fn(ev)
	}
}

// Count returns the number of live subscriptions.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
