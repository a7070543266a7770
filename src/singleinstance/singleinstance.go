// Package singleinstance lets one resident own a loopback port and answer
// requests delegated by short-lived invocations.
//
// The protocol is line based. A client sends PING and expects PONG, or sends
// a mode line (STDOUT or CLIPBOARD) and reads SUCCESS or ERROR followed by
// the answer or message until the connection closes.
package singleinstance

import (
	"context"
	"errors"
	"os"
	"strconv"
)

const (
	defaultPortStart = 49500
	defaultPortEnd   = 49550

	residentHost = "127.0.0.1"

	pingRequest     = "PING\n"
	pongResponse    = "PONG\n"
	successResponse = "SUCCESS\n"
	errorResponse   = "ERROR\n"
)

// ErrAlreadyRunning is returned by Listen when another resident owns the port.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Mode selects where the resident delivers the answer.
type Mode string

const (
	// ModeStdout returns the answer text to the client.
	ModeStdout Mode = "STDOUT"
	// ModeClipboard leaves delivery to the resident and returns no text.
	ModeClipboard Mode = "CLIPBOARD"
)

func parseMode(line string) (Mode, bool) {
	switch Mode(line) {
	case ModeStdout, ModeClipboard:
		return Mode(line), true
	}
	return "", false
}

// Request is one delegated select-and-capture.
type Request struct {
	Mode Mode
}

// Handler runs a delegated request and returns the answer.
type Handler func(ctx context.Context, req Request) (string, error)

// PortRange returns the TCP port range from SINGLEINSTANCE_PORT_START and
// SINGLEINSTANCE_PORT_END, clamped to [1024, 65535].
func PortRange() (int, int) {
	start := envPort("SINGLEINSTANCE_PORT_START", defaultPortStart)
	end := envPort("SINGLEINSTANCE_PORT_END", defaultPortEnd)
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envPort(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
