package window

import "log"

// IgnoreFailure runs fn and logs, then drops, its error. It marks call sites
// where failure is acceptable, such as closing a window that may already be gone.
func IgnoreFailure(what string, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("window: ignoring failure to %s: %v", what, err)
	}
}
