package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Client delegates requests to a running resident.
type Client struct {
	// Start and End bound the scanned port range; zero means PortRange.
	Start, End int
	// DialTimeout bounds each probe; zero means 300ms.
	DialTimeout time.Duration
}

// Detect returns the port of a resident that answers PING.
func (c Client) Detect(ctx context.Context) (int, bool) {
	start, end := c.portRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(c.addr(port), c.timeout()) {
			return port, true
		}
	}
	return 0, false
}

// Delegate hands a select-and-capture to the resident. delegated is false,
// with a nil error, when no resident is running.
func (c Client) Delegate(ctx context.Context, mode Mode) (delegated bool, text string, err error) {
	port, ok := c.Detect(ctx)
	if !ok {
		return false, "", nil
	}

	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout())
	conn, err := d.DialContext(dialCtx, "tcp", c.addr(port))
	cancel()
	if err != nil {
		return false, "", nil
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := io.WriteString(conn, string(mode)+"\n"); err != nil {
		return true, "", fmt.Errorf("send request: %w", err)
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return true, "", fmt.Errorf("read reply: %w", err)
	}
	body, _ := io.ReadAll(br)
	switch status {
	case successResponse:
		return true, string(body), nil
	case errorResponse:
		return true, "", errors.New(string(body))
	default:
		return true, "", fmt.Errorf("unexpected reply %q", status)
	}
}

func (c Client) portRange() (int, int) {
	if c.Start > 0 && c.End >= c.Start {
		return c.Start, c.End
	}
	return PortRange()
}

func (c Client) timeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return 300 * time.Millisecond
}

func (c Client) addr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
