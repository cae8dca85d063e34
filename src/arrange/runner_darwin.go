//go:build darwin

package arrange

import (
	"bytes"
	"context"
	"os/exec"
)

// OSAScript runs scripts through /usr/bin/osascript.
type OSAScript struct{}

func (OSAScript) Run(ctx context.Context, script string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Supported reports whether Arrange can work on this platform.
func Supported() bool { return true }
