// internal/record/record.go
package record

import (
	"errors"
	"fmt"
	"strings"
)

// TimeLayout is the timestamp format carried in field 0.
const TimeLayout = "2006-01-02 15:04:05"

// Separator joins fields on the wire and must never appear inside a field.
const Separator = ","

// ErrSeparatorInField is returned when a field would break positional decoding.
var ErrSeparatorInField = errors.New("record: field contains separator")

// Record is one fixed-shape telemetry sample.
// Field order is the contract between producer and consumer.
// Immutable after construction.
type Record struct {
	fields []string
}

// New builds a record from an ordered field list.
// The slice is copied; later mutation by the caller has no effect.
func New(fields []string) (Record, error) {
	for i, f := range fields {
		if strings.Contains(f, Separator) {
			return Record{}, fmt.Errorf("%w: index=%d value=%q", ErrSeparatorInField, i, f)
		}
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return Record{fields: out}, nil
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Field returns field i, or "" when i is out of range.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Fields returns a copy of all fields in wire order.
func (r Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Valid reports whether the record has exactly n fields.
func (r Record) Valid(n int) bool { return len(r.fields) == n }

// Equal compares two records field by field.
func (r Record) Equal(o Record) bool {
	if len(r.fields) != len(o.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// String renders the record the way it travels on the wire.
func (r Record) String() string { return strings.Join(r.fields, Separator) }

// OrUnknown returns r when it has n fields, otherwise the Unknown placeholder.
func (r Record) OrUnknown(n int) Record {
	if r.Valid(n) {
		return r
	}
	return Placeholder(Unknown, n)
}
