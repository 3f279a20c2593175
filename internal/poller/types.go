// internal/poller/types.go
package poller

import (
	"fmt"
	"time"
)

// Point describes one register-backed measurement.
// Geometry plus scaling: no device semantics.
type Point struct {
	Name     string
	FC       uint8 // 3 holding, 4 input
	Address  uint16
	Quantity uint16 // 1 or 2 registers, big-endian word order
	Signed   bool
	Scale    float64
	Decimals int // < 0 means shortest representation
}

// Node is one physical bus device.
type Node struct {
	Name    string
	Port    string
	SlaveID uint8
	Points  []Point
}

// NodeError is a per-node read failure. The cycle continues.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string { return fmt.Sprintf("node %s: %v", e.Node, e.Err) }

func (e *NodeError) Unwrap() error { return e.Err }

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	At time.Time

	// Values holds the last-known value of every point, keyed NODE.point.
	// Points never read successfully are absent.
	Values map[string]string

	// Faults lists nodes whose read failed this cycle; their values are stale.
	Faults []NodeError
}

// AllFailed reports whether every node failed this cycle.
func (r PollResult) AllFailed(nodes int) bool {
	return nodes > 0 && len(r.Faults) == nodes
}

// Key builds the NODE.point lookup key.
func Key(node, point string) string { return node + "." + point }
