// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// PortClient is one connection to a physical port (serial line or TCP
// gateway) shared by every node on it.
// It serializes requests because it mutates SlaveId per read.
type PortClient struct {
	mu       sync.Mutex
	handler  handler
	client   modbus.Client
	setSlave func(uint8)
	latency  time.Duration
	lastReq  time.Time
}

type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Config is the transport config of one port.
type Config struct {
	Mode     string // rtu | tcp
	Endpoint string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	Timeout  time.Duration
	Latency  time.Duration // minimum gap between two requests
}

// New creates a connected port client. One attempt per call.
func New(cfg Config) (*PortClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus port: endpoint required")
	}

	c := &PortClient{latency: cfg.Latency}

	switch cfg.Mode {
	case "", "rtu":
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = cfg.Parity
		h.StopBits = cfg.StopBits
		h.Timeout = cfg.Timeout
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
	case "tcp":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		c.handler = h
		c.setSlave = func(id uint8) { h.SlaveId = id }
	default:
		return nil, fmt.Errorf("modbus port: unsupported mode %q", cfg.Mode)
	}

	if err := c.handler.Connect(); err != nil {
		return nil, fmt.Errorf("modbus port %s: connect: %w", cfg.Endpoint, err)
	}
	c.client = modbus.NewClient(c.handler)
	return c, nil
}

// Close closes the underlying port.
func (c *PortClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ---- poller.Client interface ----

func (c *PortClient) ReadHoldingRegisters(slave uint8, addr, qty uint16) ([]uint16, error) {
	return c.read(slave, func() ([]byte, error) {
		return c.client.ReadHoldingRegisters(addr, qty)
	})
}

func (c *PortClient) ReadInputRegisters(slave uint8, addr, qty uint16) ([]uint16, error) {
	return c.read(slave, func() ([]byte, error) {
		return c.client.ReadInputRegisters(addr, qty)
	})
}

func (c *PortClient) read(slave uint8, do func() ([]byte, error)) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.latency > 0 && !c.lastReq.IsZero() {
		if wait := c.latency - time.Since(c.lastReq); wait > 0 {
			time.Sleep(wait)
		}
	}
	defer func() { c.lastReq = time.Now() }()

	c.setSlave(slave)

	raw, err := do()
	if err != nil {
		return nil, err
	}
	if len(raw)%2 != 0 {
		return nil, errors.New("modbus: register payload length not even")
	}
	return unpackRegisters(raw), nil
}

// ExceptionCode extracts the Modbus exception code, if err carries one.
func ExceptionCode(err error) (byte, bool) {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return me.ExceptionCode, true
	}
	return 0, false
}

// ---- helpers (pure geometry) ----

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
