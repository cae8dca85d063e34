package singleinstance

import (
	"os"
	"strconv"
	"strings"
)

// Environment overrides for the loopback port range, both inclusive. The
// resident binds the first port; clients scan the whole range.
const (
	PortStartEnvVar = "SINGLEINSTANCE_PORT_START"
	PortEndEnvVar   = "SINGLEINSTANCE_PORT_END"

	defaultPortStart = 49600
	defaultPortEnd   = 49609

	minPort = 1024
	maxPort = 65535
)

// PortRange returns the effective range after env overrides and clamping.
func PortRange() (start, end int) {
	start = envPort(PortStartEnvVar, defaultPortStart)
	end = envPort(PortEndEnvVar, defaultPortEnd)
	start = max(start, minPort)
	end = min(end, maxPort)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envPort(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
