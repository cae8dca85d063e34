package singleinstance

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"

	"lighthouse/src/logutil"
)

const defaultPingTimeout = 300 * time.Millisecond

// DetectResidentPort reports the first port in PortRange whose listener
// answers PING with PONG. Each probe is bounded by ctx's remaining time, or
// a short default when ctx has no deadline.
func DetectResidentPort(ctx context.Context) (int, bool) {
	start, end := PortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(residentAddr(port), pingTimeout(ctx)) {
			return port, true
		}
	}
	return 0, false
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

func pingTimeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return defaultPingTimeout
}

// ping dials addr and checks for the PONG reply.
func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		logutil.Debugf("singleinstance: ping %s: %v", addr, err)
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		logutil.Debugf("singleinstance: ping %s: %v", addr, err)
		return false
	}
	return resp == pongResponse
}
