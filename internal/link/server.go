// internal/link/server.go
package link

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/energy-relay/internal/status"
)

// ServerConfig is the display side of the link.
type ServerConfig struct {
	Network    string
	Address    string
	Fields     int // N
	BufferSize int
	Timeout    time.Duration // bounds one receive cycle (accept + read)

	// SyncWait is the producer's settle delay after a sync ack. The cycle
	// deadline is pushed out so the paced data message can still arrive.
	SyncWait time.Duration
}

// syncGrace is the time allowed for the data message once the settle
// delay has elapsed.
const syncGrace = time.Second

// Server holds at most one peer connection. A new inbound connection
// replaces the previous one. Receive is meant to be driven by a single
// goroutine; Close may be called from any goroutine.
type Server struct {
	cfg ServerConfig
	log *logrus.Entry
	ln  net.Listener

	mu     sync.Mutex
	conn   net.Conn
	state  status.ConnState
	closed bool
}

type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// Listen binds the endpoint. In unix mode a stale socket file left by a
// previous run is removed first.
func Listen(cfg ServerConfig, log *logrus.Logger) (*Server, error) {
	if cfg.Address == "" {
		return nil, errors.New("link server: address required")
	}
	if cfg.Fields <= 0 {
		return nil, errors.New("link server: field count must be > 0")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("link server: timeout must be > 0")
	}
	if cfg.Network == "" {
		cfg.Network = "unix"
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}

	entry := log.WithField("component", "consumer")

	if cfg.Network == "unix" {
		if err := os.Remove(cfg.Address); err == nil {
			entry.Infof("removed stale socket %s", cfg.Address)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("link server: remove stale socket %s: %w", cfg.Address, err)
		}
	}

	ln, err := net.Listen(cfg.Network, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("link server: listen %s %s: %w", cfg.Network, cfg.Address, err)
	}
	if ul, ok := ln.(*net.UnixListener); ok {
		ul.SetUnlinkOnClose(false) // Close removes the path itself
	}

	entry.Infof("listening on %s %s", cfg.Network, ln.Addr())

	return &Server{cfg: cfg, log: entry, ln: ln}, nil
}

// Addr returns the bound address (useful with tcp port 0).
func (s *Server) Addr() string { return s.ln.Addr().String() }

// State returns the current connection state.
func (s *Server) State() status.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Receive runs one receive cycle bounded by the configured timeout.
//
//	sync_request   -> reply "ack", keep reading on the same connection
//	                  (deadline extended to cover the settle delay)
//	EOF            -> peer finished; accept the next connection
//	N fields       -> reply "ACK", OK
//	other payload  -> no reply, Invalid
//	timeout/reset  -> drop connection, Retryable
//	anything else  -> drop connection, Fatal
func (s *Server) Receive() Result {
	deadline := time.Now().Add(s.cfg.Timeout)
	buf := make([]byte, s.cfg.BufferSize)

	for {
		conn, err := s.current(deadline)
		if err != nil {
			return s.fail(err)
		}

		_ = conn.SetReadDeadline(deadline)
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("peer closed connection; re-arming accept")
				s.drop()
				continue
			}
			return s.fail(err)
		}
		msg := buf[:n]

		if string(msg) == TokenSyncRequest {
			_ = conn.SetWriteDeadline(deadline)
			if _, err := conn.Write([]byte(TokenSyncAck)); err != nil {
				return s.fail(fmt.Errorf("write sync ack: %w", err))
			}
			s.setState(status.AwaitingPeerAck)
			if ext := time.Now().Add(s.cfg.SyncWait + syncGrace); ext.After(deadline) {
				deadline = ext
			}
			continue
		}

		s.setState(status.Connected)

		rec, ok := Decode(msg, s.cfg.Fields)
		if !ok {
			s.log.Warnf("discarding payload of %d bytes: expected %d fields", n, s.cfg.Fields)
			return Result{Kind: Invalid, Reason: "field count mismatch"}
		}

		_ = conn.SetWriteDeadline(deadline)
		if _, err := conn.Write([]byte(TokenDataAck)); err != nil {
			// The record itself is valid; only the reply was lost.
			s.log.Warnf("send ACK: %v", err)
			s.drop()
		}
		return Result{Kind: OK, Record: rec}
	}
}

// Close closes the peer connection and the listener and removes the
// socket file. Safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.state = status.Disconnected
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	err := s.ln.Close()
	if s.cfg.Network == "unix" {
		if rmErr := os.Remove(s.cfg.Address); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = rmErr
		}
	}
	s.log.Info("link server closed")
	return err
}

// ---- internals ----

// current returns the held connection or accepts a new one before deadline.
func (s *Server) current(deadline time.Time) (net.Conn, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, net.ErrClosed
	}
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		return conn, nil
	}

	if dl, ok := s.ln.(deadlineListener); ok {
		_ = dl.SetDeadline(deadline)
	}
	conn, err := s.ln.Accept()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return nil, net.ErrClosed
	}
	s.conn = conn
	s.state = status.Connected
	s.mu.Unlock()

	s.log.Debug("accepted producer connection")
	return conn, nil
}

func (s *Server) drop() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = status.Disconnected
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Server) setState(st status.ConnState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// fail drops the connection and classifies err.
func (s *Server) fail(err error) Result {
	s.drop()

	if isRetryable(err) {
		s.log.Infof("connection reset or timed out; re-establishing: %v", err)
		return Result{Kind: Retryable, Reason: err.Error()}
	}
	s.log.Errorf("receive failed: %v", err)
	return Result{Kind: Fatal, Reason: err.Error()}
}

func isRetryable(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNABORTED)
}
