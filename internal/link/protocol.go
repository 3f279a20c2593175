// internal/link/protocol.go
package link

import (
	"strings"
	"unicode/utf8"

	"github.com/tamzrod/energy-relay/internal/record"
)

// Wire tokens. Byte-exact: the handshake reply is lower case, the data
// reply is upper case.
const (
	TokenSyncRequest = "sync_request"
	TokenSyncAck     = "ack"
	TokenDataAck     = "ACK"
)

// DefaultBufferSize bounds a single receive.
const DefaultBufferSize = 1024

// Encode serializes a record as UTF-8 fields joined by a single comma.
func Encode(r record.Record) []byte {
	return []byte(r.String())
}

// Decode splits a payload into exactly n fields.
// ok is false when the payload is not UTF-8 or the field count differs.
func Decode(payload []byte, n int) (record.Record, bool) {
	if !utf8.Valid(payload) {
		return record.Record{}, false
	}
	parts := strings.Split(string(payload), record.Separator)
	if len(parts) != n {
		return record.Record{}, false
	}
	// Split output never contains the separator.
	r, err := record.New(parts)
	if err != nil {
		return record.Record{}, false
	}
	return r, true
}

// IsAck reports whether a producer-side reply confirms delivery.
func IsAck(reply string) bool {
	return reply == TokenDataAck || reply == TokenSyncAck
}
