// internal/record/placeholder.go
package record

// Kind names a placeholder record.
type Kind uint8

const (
	// Unknown is shown at cold start and for malformed payloads.
	Unknown Kind = iota
	// LinkDown is shown when the producer could not be reached in time.
	LinkDown
	// Error is shown after an unexpected transport fault.
	Error
)

// Sentinel values, one per placeholder kind.
const (
	SentinelUnknown  = "none"
	SentinelLinkDown = "OUT"
	SentinelError    = "error"
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case LinkDown:
		return "link_down"
	case Error:
		return "error"
	default:
		return "invalid"
	}
}

// Sentinel returns the text every field of a placeholder of kind k carries.
func (k Kind) Sentinel() string {
	switch k {
	case LinkDown:
		return SentinelLinkDown
	case Error:
		return SentinelError
	default:
		return SentinelUnknown
	}
}

// Placeholder builds an n-field record with every field set to the kind's sentinel.
func Placeholder(k Kind, n int) Record {
	if n < 0 {
		n = 0
	}
	fields := make([]string, n)
	s := k.Sentinel()
	for i := range fields {
		fields[i] = s
	}
	return Record{fields: fields}
}
