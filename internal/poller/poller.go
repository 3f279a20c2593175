// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Client abstracts Modbus operations needed by the poller.
// One Client per physical port; the slave id is chosen per request.
type Client interface {
	ReadHoldingRegisters(slave uint8, addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(slave uint8, addr, qty uint16) ([]uint16, error)   // FC 4
	Close() error
}

// Poller reads every node once per cycle, in configured order.
// It keeps the last-known value of every point so a failed node keeps
// reporting its previous values.
type Poller struct {
	nodes   []Node
	clients map[string]Client
	last    map[string]string
	pending []NodeError // faults of the cycle in progress
	now     func() time.Time
}

// New creates a poller with immutable node geometry.
func New(nodes []Node, clients map[string]Client) (*Poller, error) {
	if len(nodes) == 0 {
		return nil, errors.New("poller: at least one node required")
	}
	for _, n := range nodes {
		if clients[n.Port] == nil {
			return nil, fmt.Errorf("poller: node %s: no client for port %q", n.Name, n.Port)
		}
		if len(n.Points) == 0 {
			return nil, fmt.Errorf("poller: node %s: at least one point required", n.Name)
		}
	}
	return &Poller{
		nodes:   nodes,
		clients: clients,
		last:    make(map[string]string),
		now:     time.Now,
	}, nil
}

// NodeCount returns the number of configured nodes.
func (p *Poller) NodeCount() int { return len(p.nodes) }

// ReadAll performs exactly one poll cycle.
// Per node all-or-nothing: a failing point aborts that node only.
func (p *Poller) ReadAll() PollResult {
	for _, n := range p.nodes {
		vals, err := p.readNode(n)
		if err != nil {
			p.pending = append(p.pending, NodeError{Node: n.Name, Err: err})
			continue
		}
		// Commit only if every point of the node succeeded.
		for k, v := range vals {
			p.last[k] = v
		}
	}
	return p.snapshot()
}

// Close releases every port client.
func (p *Poller) Close() error {
	var errs []error
	for id, c := range p.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("port %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Poller) readNode(n Node) (map[string]string, error) {
	cli := p.clients[n.Port]
	out := make(map[string]string, len(n.Points))

	for _, pt := range n.Points {
		var (
			regs []uint16
			err  error
		)
		switch pt.FC {
		case 3:
			regs, err = cli.ReadHoldingRegisters(n.SlaveID, pt.Address, pt.Quantity)
		case 4:
			regs, err = cli.ReadInputRegisters(n.SlaveID, pt.Address, pt.Quantity)
		default:
			err = fmt.Errorf("unsupported function code %d", pt.FC)
		}
		if err != nil {
			return nil, fmt.Errorf("point %s fc=%d addr=%d: %w", pt.Name, pt.FC, pt.Address, err)
		}
		if len(regs) < int(pt.Quantity) {
			return nil, fmt.Errorf("point %s: short response %d/%d registers", pt.Name, len(regs), pt.Quantity)
		}
		out[Key(n.Name, pt.Name)] = FormatValue(pt, regs)
	}
	return out, nil
}

// snapshot copies the last-known values and hands over the cycle's faults.
func (p *Poller) snapshot() PollResult {
	vals := make(map[string]string, len(p.last))
	for k, v := range p.last {
		vals[k] = v
	}
	res := PollResult{At: p.now(), Values: vals, Faults: p.pending}
	p.pending = nil
	return res
}

// ---- value decoding (pure) ----

// Decode turns raw registers into a scaled number.
func Decode(pt Point, regs []uint16) float64 {
	var v float64
	if pt.Quantity == 2 && len(regs) >= 2 {
		raw := uint32(regs[0])<<16 | uint32(regs[1])
		if pt.Signed {
			v = float64(int32(raw))
		} else {
			v = float64(raw)
		}
	} else if len(regs) >= 1 {
		if pt.Signed {
			v = float64(int16(regs[0]))
		} else {
			v = float64(regs[0])
		}
	}
	scale := pt.Scale
	if scale == 0 {
		scale = 1
	}
	return v * scale
}

// FormatValue decodes and renders a point value as record text.
func FormatValue(pt Point, regs []uint16) string {
	v := Decode(pt, regs)
	if pt.Decimals >= 0 {
		// Avoid "-0.0" for tiny negatives rounded away.
		p := math.Pow(10, float64(pt.Decimals))
		if math.Round(v*p) == 0 {
			v = 0
		}
		return strconv.FormatFloat(v, 'f', pt.Decimals, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
