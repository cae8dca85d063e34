//go:build !windows

package main

import (
	"log"

	"lighthouse/src/screenshot"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	b, err := screenshot.PrimaryBounds()
	if err != nil {
		log.Printf("MONITOR: %v", err)
		return
	}
	log.Printf("MONITOR: primary %dx%d", b.Dx(), b.Dy())
}
