// internal/status/state.go
package status

// ConnState is the per-endpoint connection state of the sync link.
type ConnState uint8

const (
	// Disconnected means no peer connection is held.
	Disconnected ConnState = iota

	// Connected means one peer connection is held and idle.
	Connected

	// AwaitingPeerAck means a handshake or data message is in flight
	// on the held connection and the peer's reply is pending.
	AwaitingPeerAck
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case AwaitingPeerAck:
		return "awaiting_peer_ack"
	default:
		return "invalid"
	}
}
