package singleinstance

// This file defines the API for single-instance ownership and command delegation.

import (
	"context"
)

// Commands a second launch can send to the resident.
const (
	CommandShow = "SHOW"
)

// Server owns the TCP endpoint and answers client commands.
type Server interface {
	// Start begins listening on the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	// RespondOK acknowledges the command.
	RespondOK() error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	Close() error
}

// Request is one command line sent by a client.
type Request struct {
	Command string
}

// Client delegates a command to a resident server.
type Client interface {
	// Send scans the configured port range and hands command to the first
	// resident that answers PING. With no resident, delegated is false and
	// err is nil.
	Send(ctx context.Context, command string) (delegated bool, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
