//go:build !darwin

package arrange

import "context"

// OSAScript is unavailable off macOS; every call fails with ErrUnsupported.
type OSAScript struct{}

func (OSAScript) Run(context.Context, string) (string, string, error) {
	return "", "", ErrUnsupported
}

func Supported() bool { return false }
