// internal/link/producer.go
package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/status"
)

// ProducerConfig is the acquisition side of the link.
type ProducerConfig struct {
	Network    string
	Address    string
	BufferSize int
	Timeout    time.Duration // bounds dial and each read/write
	SyncWait   time.Duration // settle delay after a sync ack
	Handshake  bool          // run sync_request before every data exchange
}

// Producer is a stateless client: one exchange = one connection.
// Socket errors never escape; they surface as an absent acknowledgement.
type Producer struct {
	cfg    ProducerConfig
	log    *logrus.Entry
	dialer net.Dialer

	mu   sync.Mutex
	snap status.Snapshot
}

func NewProducer(cfg ProducerConfig, log *logrus.Logger) (*Producer, error) {
	if cfg.Address == "" {
		return nil, errors.New("link producer: address required")
	}
	if cfg.Network == "" {
		cfg.Network = "unix"
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Producer{
		cfg:    cfg,
		log:    log.WithField("component", "producer"),
		dialer: net.Dialer{Timeout: cfg.Timeout},
	}, nil
}

// Snapshot returns the producer's view of link health.
func (p *Producer) Snapshot() status.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Sync runs the handshake on its own connection and waits the settle
// delay on success. Any failure or refusal returns false.
func (p *Producer) Sync(ctx context.Context) bool {
	conn, err := p.dial(ctx)
	if err != nil {
		p.log.Warnf("sync dial: %v", err)
		p.failed()
		return false
	}
	defer p.close(conn)

	if err := p.handshake(ctx, conn); err != nil {
		p.log.Warnf("sync: %v", err)
		p.failed()
		return false
	}
	p.succeeded()
	return true
}

// Send relays one record and returns the peer's raw reply.
// ok is false when any socket operation failed; the reply is then empty.
func (p *Producer) Send(ctx context.Context, r record.Record) (reply string, ok bool) {
	conn, err := p.dial(ctx)
	if err != nil {
		p.log.Warnf("dial %s %s: %v", p.cfg.Network, p.cfg.Address, err)
		p.failed()
		return "", false
	}
	defer p.close(conn)

	if p.cfg.Handshake {
		if err := p.handshake(ctx, conn); err != nil {
			p.log.Warnf("handshake: %v", err)
			p.failed()
			return "", false
		}
	}

	p.setState(status.AwaitingPeerAck)
	if err := p.write(conn, Encode(r)); err != nil {
		p.log.Warnf("send record: %v", err)
		p.failed()
		return "", false
	}

	reply, err = p.read(conn)
	if err != nil {
		p.log.Warnf("read acknowledgement: %v", err)
		p.failed()
		return "", false
	}

	p.log.Debugf("received from consumer: %q", reply)
	p.succeeded()
	return reply, true
}

// ---- exchange helpers ----

// errSyncRefused is returned when the consumer answers the sync request
// with anything but the handshake token.
var errSyncRefused = errors.New("sync refused")

func (p *Producer) handshake(ctx context.Context, conn net.Conn) error {
	p.setState(status.AwaitingPeerAck)

	if err := p.write(conn, []byte(TokenSyncRequest)); err != nil {
		return fmt.Errorf("send sync request: %w", err)
	}
	reply, err := p.read(conn)
	if err != nil {
		return fmt.Errorf("read sync reply: %w", err)
	}
	if reply != TokenSyncAck {
		return fmt.Errorf("%w: reply=%q", errSyncRefused, reply)
	}

	p.setState(status.Connected)
	if p.cfg.SyncWait <= 0 {
		return nil
	}

	timer := time.NewTimer(p.cfg.SyncWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Producer) dial(ctx context.Context) (net.Conn, error) {
	conn, err := p.dialer.DialContext(ctx, p.cfg.Network, p.cfg.Address)
	if err != nil {
		return nil, err
	}
	// Cancellation unblocks in-flight reads and writes.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	p.setState(status.Connected)
	return &stopConn{Conn: conn, stop: stop}, nil
}

func (p *Producer) close(conn net.Conn) {
	_ = conn.Close()
	p.setState(status.Disconnected)
}

func (p *Producer) write(conn net.Conn, b []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(p.cfg.Timeout))
	for len(b) > 0 {
		n, err := conn.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (p *Producer) read(conn net.Conn) (string, error) {
	_ = conn.SetReadDeadline(time.Now().Add(p.cfg.Timeout))
	buf := make([]byte, p.cfg.BufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (p *Producer) setState(s status.ConnState) {
	p.mu.Lock()
	p.snap.State = s
	p.mu.Unlock()
}

func (p *Producer) succeeded() {
	p.mu.Lock()
	p.snap = p.snap.Succeeded(time.Now())
	p.mu.Unlock()
}

func (p *Producer) failed() {
	p.mu.Lock()
	p.snap = p.snap.Failed()
	p.mu.Unlock()
}

// stopConn releases the context watcher on Close.
type stopConn struct {
	net.Conn
	stop func() bool
}

func (c *stopConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
