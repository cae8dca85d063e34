// Package handshake delivers an initial payload to a freshly created window
// once its content reports ready, or after a timeout, whichever comes first.
package handshake

import (
	"fmt"
	"log"
	"sync"
	"time"

	"lighthouse/src/events"
)

// DefaultTimeout bounds the wait for a window's ready signal.
const DefaultTimeout = 5 * time.Second

type State int

const (
	Created State = iota
	AwaitingReady
	ReadySignaled
	TimedOut
	DataPushed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case AwaitingReady:
		return "awaiting-ready"
	case ReadySignaled:
		return "ready-signaled"
	case TimedOut:
		return "timed-out"
	case DataPushed:
		return "data-pushed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Delivery tracks one background handshake.
type Delivery struct {
	mu       sync.Mutex
	state    State
	timedOut bool
	err      error
	done     chan struct{}
}

// Deliver waits on ready for at most timeout, then calls push exactly once.
//
// ready must come from a subscription made before the window content could
// emit its ready event, otherwise a fast window is indistinguishable from a
// slow one and the push only happens after the full timeout. cancel drops
// that subscription and may be nil.
//
// Deliver returns immediately; the wait runs on its own goroutine.
func Deliver(label string, ready <-chan events.Event, cancel func(), timeout time.Duration, push func() error) *Delivery {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &Delivery{state: Created, done: make(chan struct{})}
	d.set(AwaitingReady)

	go func() {
		defer close(d.done)
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-ready:
			d.set(ReadySignaled)
		case <-timer.C:
			d.mu.Lock()
			d.timedOut = true
			d.mu.Unlock()
			d.set(TimedOut)
			log.Printf("handshake: %s did not signal ready within %v, pushing anyway", label, timeout)
		}
		if cancel != nil {
			cancel()
		}

		err := push()
		d.mu.Lock()
		d.err = err
		d.state = DataPushed
		d.mu.Unlock()
		if err != nil {
			log.Printf("handshake: push to %s failed: %v", label, err)
		}
	}()
	return d
}

func (d *Delivery) set(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Done is closed after the payload push returned.
func (d *Delivery) Done() <-chan struct{} { return d.done }

func (d *Delivery) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// TimedOut reports whether the push went out without a ready signal.
func (d *Delivery) TimedOut() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timedOut
}

// Err is the push error, if any. Only meaningful after Done.
func (d *Delivery) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
