// internal/link/result.go
package link

import "github.com/tamzrod/energy-relay/internal/record"

// ResultKind classifies one consumer receive cycle.
type ResultKind uint8

const (
	// OK: a valid record arrived and was acknowledged.
	OK ResultKind = iota
	// Invalid: a payload arrived with the wrong shape; no ACK was sent.
	Invalid
	// Retryable: timeout or peer reset; the connection was dropped.
	Retryable
	// Fatal: any other transport fault; the connection was dropped.
	Fatal
)

func (k ResultKind) String() string {
	switch k {
	case OK:
		return "ok"
	case Invalid:
		return "invalid"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Result is returned by Server.Receive instead of an error so callers
// switch on the outcome.
type Result struct {
	Kind   ResultKind
	Record record.Record // set only for OK
	Reason string
}

// Resolve maps the outcome to a renderable n-field record.
func (r Result) Resolve(n int) record.Record {
	switch r.Kind {
	case OK:
		return r.Record.OrUnknown(n)
	case Retryable:
		return record.Placeholder(record.LinkDown, n)
	case Fatal:
		return record.Placeholder(record.Error, n)
	default:
		return record.Placeholder(record.Unknown, n)
	}
}

// Label names the resolved record kind (metrics, logs).
func (r Result) Label() string {
	switch r.Kind {
	case OK:
		return "record"
	case Retryable:
		return record.LinkDown.String()
	case Fatal:
		return record.Error.String()
	default:
		return record.Unknown.String()
	}
}
