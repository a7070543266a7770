package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

const handshakeTimeout = 3 * time.Second

// Server owns the resident port.
type Server struct {
	lis     net.Listener
	port    int
	handler Handler
	wg      sync.WaitGroup
}

// Listen binds the first port of the range and serves requests with h until
// ctx ends or Close is called. A busy port means another resident exists.
func Listen(ctx context.Context, h Handler) (*Server, error) {
	start, _ := PortRange()
	return listenOn(ctx, start, h)
}

func listenOn(ctx context.Context, port int, h Handler) (*Server, error) {
	addr := net.JoinHostPort(residentHost, fmt.Sprint(port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return nil, fmt.Errorf("%w on port %d: %v", ErrAlreadyRunning, port, err)
	}
	s := &Server{lis: lis, port: lis.Addr().(*net.TCPAddr).Port, handler: h}
	log.Printf("singleinstance: listening on %s", lis.Addr())

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	go func() {
		<-ctx.Done()
		_ = lis.Close()
	}()
	return s, nil
}

// Port returns the bound TCP port.
func (s *Server) Port() int { return s.port }

// Close stops accepting and waits for in-flight requests.
func (s *Server) Close() error {
	err := s.lis.Close()
	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, c)
		}()
	}
}

func (s *Server) serve(ctx context.Context, c net.Conn) {
	defer c.Close()
	remote := c.RemoteAddr().String()

	_ = c.SetDeadline(time.Now().Add(handshakeTimeout))
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}
	w := bufio.NewWriter(c)
	if line == pingRequest {
		log.Printf("singleinstance: PING from %s -> PONG", remote)
		_, _ = w.WriteString(pongResponse)
		_ = w.Flush()
		return
	}

	mode, ok := parseMode(strings.TrimSuffix(line, "\n"))
	if !ok {
		log.Printf("singleinstance: bad request from %s: %q", remote, line)
		_, _ = w.WriteString(errorResponse + "unknown request")
		_ = w.Flush()
		return
	}

	// The handler waits for a human selection, so only the handshake is timed.
	_ = c.SetDeadline(time.Time{})
	log.Printf("singleinstance: request from %s mode=%s", remote, mode)
	text, err := s.handler(ctx, Request{Mode: mode})
	if err != nil {
		_, _ = w.WriteString(errorResponse + err.Error())
	} else {
		if mode == ModeClipboard {
			text = ""
		}
		_, _ = w.WriteString(successResponse + text)
	}
	if err := w.Flush(); err != nil {
		log.Printf("singleinstance: reply to %s failed: %v", remote, err)
	}
}
