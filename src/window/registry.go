package window

import (
	"fmt"
	"log"
	"sync"
)

// Manager keeps at most one window per label.
type Manager struct {
	host Host

	// replaceMu serialises Replace so two concurrent opens of one label
	// cannot both end up on screen.
	replaceMu sync.Mutex

	mu      sync.Mutex
	windows map[string]Handle
}

func NewManager(host Host) *Manager {
	return &Manager{host: host, windows: make(map[string]Handle)}
}

// Replace closes any window registered under spec.Label, best effort, and
// builds a fresh one in its place.
func (m *Manager) Replace(spec Spec) (Handle, error) {
	if spec.Label == "" {
		return nil, fmt.Errorf("window: empty label")
	}

	m.replaceMu.Lock()
	defer m.replaceMu.Unlock()

	m.mu.Lock()
	old := m.windows[spec.Label]
	delete(m.windows, spec.Label)
	m.mu.Unlock()

	if old != nil {
		log.Printf("window: replacing %s (%s)", spec.Label, old.ID())
		IgnoreFailure("close previous "+spec.Label, old.Close)
	}

	if spec.ID == "" {
		spec.ID = NewID()
	}
	label, id, onClosed := spec.Label, spec.ID, spec.OnClosed
	spec.OnClosed = func() {
		m.Release(label, id)
		if onClosed != nil {
			onClosed()
		}
	}

	h, err := m.host.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s window: %w", spec.Label, err)
	}

	m.mu.Lock()
	m.windows[spec.Label] = h
	m.mu.Unlock()
	return h, nil
}

// Register adopts a window built outside Replace, typically the main window.
func (m *Manager) Register(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[h.Label()] = h
}

func (m *Manager) Get(label string) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.windows[label]
	return h, ok
}

// Close closes and forgets the window under label. Closing an absent label
// is not an error.
func (m *Manager) Close(label string) error {
	m.mu.Lock()
	h := m.windows[label]
	delete(m.windows, label)
	m.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Close()
}

// Release forgets label only while it still maps to instance id.
func (m *Manager) Release(label, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.windows[label]; ok && h.ID() == id {
		delete(m.windows, label)
	}
}

// Labels returns the currently registered labels.
func (m *Manager) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.windows))
	for l := range m.windows {
		out = append(out, l)
	}
	return out
}
