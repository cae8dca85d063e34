// Package arrange lists other applications' windows and tiles one of them
// next to Lighthouse through AppleScript (System Events). It only works on
// macOS; elsewhere the runner reports ErrUnsupported.
package arrange

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"lighthouse/src/focusstate"
)

// SelfProcess is the process name excluded from listings and moved to the
// right-hand strip.
const SelfProcess = "Lighthouse"

// ErrUnsupported is returned on platforms without AppleScript.
var ErrUnsupported = errors.New("window arrangement is only supported on macOS")

// Runner executes an AppleScript source and returns its output streams.
type Runner interface {
	Run(ctx context.Context, script string) (stdout, stderr string, err error)
}

// Rect is a position and size in points.
type Rect struct {
	X, Y, W, H int
}

// Layout is the split: target on the left, Lighthouse on the right.
type Layout struct {
	Target Rect
	Self   Rect
}

// Split gives the target the left ratio of a screen of size w x h and the
// remainder to Lighthouse.
func Split(w, h int, ratio float64) Layout {
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.75
	}
	tw := int(float64(w) * ratio)
	return Layout{
		Target: Rect{X: 0, Y: 0, W: tw, H: h},
		Self:   Rect{X: tw, Y: 0, W: w - tw, H: h},
	}
}

type Arranger struct {
	runner Runner
	self   string
}

func New(r Runner) *Arranger {
	return &Arranger{runner: r, self: SelfProcess}
}

const permissionProbe = `tell application "System Events" to get name of first process`

// CheckPermission fails with remediation text when System Events refuses us.
func (a *Arranger) CheckPermission(ctx context.Context) error {
	_, stderr, err := a.runner.Run(ctx, permissionProbe)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnsupported) {
		return err
	}
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = err.Error()
	}
	return fmt.Errorf("Accessibility permissions required. Please grant %s access in System Settings → Privacy & Security → Accessibility. Error: %s", a.self, detail)
}

// Enumerate lists the windows of visible applications other than Lighthouse.
func (a *Arranger) Enumerate(ctx context.Context) ([]focusstate.WindowInfo, error) {
	if err := a.CheckPermission(ctx); err != nil {
		return nil, err
	}
	stdout, stderr, err := a.runner.Run(ctx, enumerateScript(a.self))
	if err != nil {
		return nil, fmt.Errorf("Failed to get windows: %s", firstNonEmpty(strings.TrimSpace(stderr), err.Error()))
	}
	return ParseWindowList(stdout), nil
}

func enumerateScript(self string) string {
	return `set output to ""
tell application "System Events"
	set procs to every process whose background only is false
	repeat with proc in procs
		set procName to name of proc
		if procName is not "` + escape(self) + `" then
			set procID to unix id of proc
			set winIndex to 0
			repeat with win in (every window of proc)
				set winIndex to winIndex + 1
				set winName to name of win
				if winName is missing value then set winName to ""
				set winID to (procID * 1000) + winIndex
				set output to output & procName & "|" & winName & "|" & procID & "|" & winID & linefeed
			end repeat
		end if
	end repeat
end tell
return output`
}

// ParseWindowList reads owner|window|pid|winid lines, skipping malformed ones.
// A window title containing '|' is kept whole: the numeric fields are taken
// from the end of the line.
func ParseWindowList(out string) []focusstate.WindowInfo {
	windows := []focusstate.WindowInfo{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}
		n := len(parts)
		pid, err1 := strconv.ParseInt(strings.TrimSpace(parts[n-2]), 10, 32)
		wid, err2 := strconv.ParseInt(strings.TrimSpace(parts[n-1]), 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		windows = append(windows, focusstate.WindowInfo{
			OwnerName:  parts[0],
			WindowName: strings.Join(parts[1:n-2], "|"),
			ProcessID:  int32(pid),
			WindowID:   wid,
		})
	}
	return windows
}

// Arrange moves Lighthouse into its strip (best effort) and the target into
// the left area of a screen of size w x h. Only the target move decides the
// result.
func (a *Arranger) Arrange(ctx context.Context, target focusstate.WindowInfo, w, h int, ratio float64) error {
	l := Split(w, h, ratio)

	if _, stderr, err := a.runner.Run(ctx, selfScript(a.self, l.Self)); err != nil {
		if errors.Is(err, ErrUnsupported) {
			return err
		}
		log.Printf("arrange: failed to move %s window: %s", a.self, firstNonEmpty(strings.TrimSpace(stderr), err.Error()))
	}

	_, stderr, err := a.runner.Run(ctx, targetScript(target, l.Target))
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return err
		}
		return fmt.Errorf("Failed to position window: %s", firstNonEmpty(strings.TrimSpace(stderr), err.Error()))
	}
	log.Printf("arrange: %s window %d placed at %dx%d", target.OwnerName, target.Index(), l.Target.W, l.Target.H)
	return nil
}

func selfScript(self string, r Rect) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		tell window 1
			set position to {%d, %d}
			set size to {%d, %d}
		end tell
	end tell
end tell`, escape(self), r.X, r.Y, r.W, r.H)
}

func targetScript(t focusstate.WindowInfo, r Rect) string {
	return fmt.Sprintf(`tell application "System Events"
	tell process "%s"
		set frontmost to true
		tell window %d
			set position to {%d, %d}
			set size to {%d, %d}
		end tell
	end tell
end tell`, escape(t.OwnerName), t.Index(), r.X, r.Y, r.W, r.H)
}

// escape quotes s for an AppleScript string literal.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
