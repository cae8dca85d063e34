package window

import (
	"fmt"
	"log"
	"sync"
	"time"
)

type Mode string

const (
	Instant Mode = "instant"
	Stepped Mode = "stepped"
)

// Strategy controls how a window is taken off screen for a capture.
type Strategy struct {
	Mode Mode
	// Levels are the opacity values walked through when fading out; the
	// restore walks them backwards and ends at 1.0.
	Levels    []float64
	StepDelay time.Duration
	// Settle is waited after hiding so the compositor repaints before capture.
	Settle time.Duration
}

// DefaultStrategy returns the timings used by the app for mode.
func DefaultStrategy(mode Mode) Strategy {
	switch mode {
	case Stepped:
		return Strategy{Mode: Stepped, Levels: []float64{0.5, 0.0}, StepDelay: 80 * time.Millisecond, Settle: 50 * time.Millisecond}
	default:
		return Strategy{Mode: Instant, Settle: 150 * time.Millisecond}
	}
}

// ParseMode maps a config value to a Mode; anything unknown is Instant.
func ParseMode(s string) Mode {
	if Mode(s) == Stepped {
		return Stepped
	}
	return Instant
}

var sleep = time.Sleep

// Guard restores a hidden window. Release is idempotent.
type Guard struct {
	h      Handle
	levels []float64
	delay  time.Duration
	faded  bool

	once sync.Once
	err  error
}

// Hide takes h off screen according to s. On error the window has been
// restored already and no Guard is returned.
func Hide(h Handle, s Strategy) (*Guard, error) {
	g := &Guard{h: h, delay: s.StepDelay}

	op, canFade := h.(Opacity)
	if s.Mode == Stepped && canFade && len(s.Levels) > 0 {
		for i, a := range s.Levels {
			if err := op.SetOpacity(a); err != nil {
				if i == 0 {
					log.Printf("window: opacity unsupported for %s, hiding instead: %v", h.Label(), err)
					break
				}
				g.levels = s.Levels[:i]
				g.faded = true
				IgnoreFailure("restore "+h.Label(), g.Release)
				return nil, fmt.Errorf("fade out %s: %w", h.Label(), err)
			}
			g.levels = s.Levels[:i+1]
			g.faded = true
			sleep(s.StepDelay)
		}
	}

	if !g.faded {
		if err := h.Hide(); err != nil {
			return nil, fmt.Errorf("hide %s: %w", h.Label(), err)
		}
	}
	if s.Settle > 0 {
		sleep(s.Settle)
	}
	return g, nil
}

// Release brings the window back.
func (g *Guard) Release() error {
	g.once.Do(func() {
		if !g.faded {
			g.err = g.h.Show()
			return
		}
		op := g.h.(Opacity)
		for i := len(g.levels) - 2; i >= 0; i-- {
			if err := op.SetOpacity(g.levels[i]); err != nil {
				log.Printf("window: fade in %s: %v", g.h.Label(), err)
				break
			}
			sleep(g.delay)
		}
		g.err = op.SetOpacity(1.0)
	})
	return g.err
}

// WithHidden runs fn while h is hidden and restores h on every exit path,
// panics included. A restore failure is returned when fn itself succeeded.
func WithHidden(h Handle, s Strategy, fn func() error) (err error) {
	g, err := Hide(h, s)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); rerr != nil {
			log.Printf("window: restore %s failed: %v", h.Label(), rerr)
			if err == nil {
				err = fmt.Errorf("restore %s: %w", h.Label(), rerr)
			}
		}
	}()
	return fn()
}
