package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Send(ctx context.Context, command string) (bool, error) {
	deadline := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}
	start, end := PortRange()
	for port := start; port <= end; port++ {
		addr := residentAddr(port)
		if !ping(addr, deadline) {
			continue
		}
		conn, err := net.DialTimeout("tcp", addr, deadline)
		if err != nil {
			continue
		}
		_ = conn.SetDeadline(time.Now().Add(deadline))
		w := bufio.NewWriter(conn)
		if _, err := w.WriteString(command + "\n"); err != nil {
			conn.Close()
			return true, err
		}
		if err := w.Flush(); err != nil {
			conn.Close()
			return true, err
		}
		br := bufio.NewReader(conn)
		status, err := br.ReadString('\n')
		if err != nil {
			conn.Close()
			return true, err
		}
		switch status {
		case okResponse:
			conn.Close()
			return true, nil
		case errorResponse:
			msg, _ := io.ReadAll(br)
			conn.Close()
			return true, errors.New(strings.TrimSpace(string(msg)))
		}
		conn.Close()
	}
	return false, nil
}
