// internal/link/producer_test.go
package link

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/energy-relay/internal/logging"
	"github.com/tamzrod/energy-relay/internal/record"
	"github.com/tamzrod/energy-relay/internal/status"
)

func newProducer(t *testing.T, network, addr string, handshake bool) *Producer {
	t.Helper()
	p, err := NewProducer(ProducerConfig{
		Network:   network,
		Address:   addr,
		Timeout:   300 * time.Millisecond,
		SyncWait:  10 * time.Millisecond,
		Handshake: handshake,
	}, logging.Discard())
	require.NoError(t, err)
	return p
}

func mustRecord(t *testing.T, fields ...string) record.Record {
	t.Helper()
	r, err := record.New(fields)
	require.NoError(t, err)
	return r
}

// ---- tests ----

func TestProducer_NoConsumerIsAbsentAck(t *testing.T) {
	p := newProducer(t, "unix", socketPath(t), false)

	start := time.Now()
	reply, ok := p.Send(context.Background(), mustRecord(t, "a"))

	assert.False(t, ok)
	assert.Empty(t, reply)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, uint32(1), p.Snapshot().ConsecutiveFailures)
	assert.Equal(t, status.Disconnected, p.Snapshot().State)
}

func TestProducer_SendToServer(t *testing.T) {
	s := newServer(t, 2, 2*time.Second)
	done := receiveAsync(s)

	p := newProducer(t, "unix", s.cfg.Address, false)
	reply, ok := p.Send(context.Background(), mustRecord(t, "25", "3.7"))

	require.True(t, ok)
	assert.Equal(t, "ACK", reply)
	assert.True(t, IsAck(reply))

	res := <-done
	require.Equal(t, OK, res.Kind)
	assert.Equal(t, "3.7", res.Record.Field(1))
	assert.Equal(t, uint32(0), p.Snapshot().ConsecutiveFailures)
	assert.False(t, p.Snapshot().LastSuccess.IsZero())
}

func TestProducer_MalformedForConsumerTimesOut(t *testing.T) {
	// Consumer expects 3 fields and therefore never sends ACK.
	s := newServer(t, 3, 2*time.Second)
	done := receiveAsync(s)

	p := newProducer(t, "unix", s.cfg.Address, false)
	reply, ok := p.Send(context.Background(), mustRecord(t, "a", "b"))

	assert.False(t, ok)
	assert.Empty(t, reply)
	assert.Equal(t, Invalid, (<-done).Kind)
}

func TestProducer_HandshakeThenSend(t *testing.T) {
	s := newServer(t, 19, 2*time.Second)
	done := receiveAsync(s)

	p := newProducer(t, "unix", s.cfg.Address, true)
	rec, ok := Decode([]byte(sample19), 19)
	require.True(t, ok)

	reply, ok := p.Send(context.Background(), rec)
	require.True(t, ok)
	assert.Equal(t, "ACK", reply)

	res := <-done
	require.Equal(t, OK, res.Kind)
	assert.True(t, res.Record.Equal(rec))
}

func TestProducer_SyncRefused(t *testing.T) {
	path := socketPath(t)
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 64)
		_, _ = c.Read(buf)
		_, _ = c.Write([]byte("busy"))
	}()

	p := newProducer(t, "unix", path, false)
	assert.False(t, p.Sync(context.Background()))
	assert.Equal(t, status.Disconnected, p.Snapshot().State)
}

func TestProducer_SyncAccepted(t *testing.T) {
	s := newServer(t, 1, 500*time.Millisecond)
	done := receiveAsync(s)

	p := newProducer(t, "unix", s.cfg.Address, false)
	start := time.Now()
	require.True(t, p.Sync(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond, "settle delay must elapse")

	// Sync alone delivers no record: the consumer cycle ends without data.
	res := <-done
	assert.NotEqual(t, OK, res.Kind)
}

func TestProducer_ContextCancelUnblocks(t *testing.T) {
	path := socketPath(t)
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	// Peer accepts and never answers.
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		time.Sleep(2 * time.Second)
	}()

	p, err := NewProducer(ProducerConfig{Network: "unix", Address: path, Timeout: 5 * time.Second}, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := p.Send(ctx, mustRecord(t, "a"))
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}
