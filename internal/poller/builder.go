// internal/poller/builder.go
package poller

import (
	cfg "github.com/tamzrod/energy-relay/internal/config"
	pmodbus "github.com/tamzrod/energy-relay/internal/poller/modbus"
)

// Dialer opens one port client. Swappable in tests.
type Dialer func(p cfg.PortConfig) (Client, error)

// DialModbus opens a goburrow-backed port client.
func DialModbus(p cfg.PortConfig) (Client, error) {
	return pmodbus.New(pmodbus.Config{
		Mode:     p.Mode,
		Endpoint: p.Endpoint,
		BaudRate: p.BaudRate,
		DataBits: p.DataBits,
		Parity:   p.Parity,
		StopBits: p.StopBits,
		Timeout:  cfg.Ms(p.TimeoutMs),
		Latency:  cfg.Ms(p.LatencyMs),
	})
}

// Build opens every configured port and constructs a Poller.
// One attempt per call: on any failure the ports already opened are
// closed and the error is returned so the caller can retry.
func Build(a cfg.AcquisitionConfig, dial Dialer) (*Poller, error) {
	if dial == nil {
		dial = DialModbus
	}

	clients := make(map[string]Client, len(a.Ports))
	closeAll := func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}

	for _, p := range a.Ports {
		c, err := dial(p)
		if err != nil {
			closeAll()
			return nil, err
		}
		clients[p.ID] = c
	}

	nodes := make([]Node, 0, len(a.Nodes))
	for _, n := range a.Nodes {
		node := Node{Name: n.Name, Port: n.Port, SlaveID: n.SlaveID}
		for _, pt := range n.Points {
			decimals := -1
			if pt.Decimals != nil {
				decimals = *pt.Decimals
			}
			node.Points = append(node.Points, Point{
				Name:     pt.Name,
				FC:       pt.FC,
				Address:  pt.Address,
				Quantity: pt.Quantity,
				Signed:   pt.Signed,
				Scale:    pt.Scale,
				Decimals: decimals,
			})
		}
		nodes = append(nodes, node)
	}

	p, err := New(nodes, clients)
	if err != nil {
		closeAll()
		return nil, err
	}
	return p, nil
}
