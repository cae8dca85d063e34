// Package window owns the app's labelled windows: building them through a
// Host, replacing same-label windows, and hiding a window around a capture.
package window

import (
	"errors"

	"github.com/google/uuid"
)

// Well-known window labels.
const (
	LabelMain       = "main"
	LabelOverlay    = "screen-overlay"
	LabelViewer     = "fullscreen-viewer"
	LabelSettings   = "settings"
	LabelSkillGraph = "skill-graph"
)

// Kind selects the content a Host renders into a window.
type Kind string

const (
	KindMain       Kind = "main"
	KindOverlay    Kind = "overlay"
	KindViewer     Kind = "viewer"
	KindSettings   Kind = "settings"
	KindSkillGraph Kind = "skill-graph"
)

// ErrUnsupported is returned by a Handle for an option the host cannot honour.
var ErrUnsupported = errors.New("window: operation not supported by host")

// Spec describes a window to build.
type Spec struct {
	// ID identifies this window instance. Events are addressed by ID so a
	// push for a replaced window never reaches its successor. Filled by
	// Manager.Replace when empty.
	ID    string
	Label string
	Kind  Kind
	Title string

	Width, Height float32
	X, Y          float32
	Centered      bool

	Decorations  bool
	Transparent  bool
	AlwaysOnTop  bool
	ClickThrough bool
	Resizable    bool
	Focused      bool

	// OnClosed runs once after the window went away, whoever closed it.
	OnClosed func()
}

// Handle is a live window.
type Handle interface {
	ID() string
	Label() string
	// Emit delivers a named event with payload to the window's content.
	Emit(name string, payload any) error
	Show() error
	Hide() error
	Focus() error
	Close() error
	SetIgnoreCursorEvents(ignore bool) error
}

// Opacity is implemented by handles whose host can fade them.
type Opacity interface {
	SetOpacity(alpha float64) error
}

// Host builds windows. Implementations must be safe to call from any goroutine.
type Host interface {
	Build(spec Spec) (Handle, error)
}

// NewID returns a fresh window instance id.
func NewID() string {
	return uuid.NewString()
}
