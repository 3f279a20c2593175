// internal/writer/types.go
package writer

import (
	"context"
	"fmt"

	"github.com/tamzrod/energy-relay/internal/record"
)

// LocalLog is the durable, always-on sink.
type LocalLog interface {
	Append(r record.Record) error
}

// Store is the remote relational sink.
type Store interface {
	Insert(ctx context.Context, r record.Record) error
	Close() error
}

// Mirror is the optional latest-record cache.
type Mirror interface {
	Publish(ctx context.Context, r record.Record) error
	Close() error
}

// LocalLogError means the local log could not be appended. It is the
// only error Persist returns.
type LocalLogError struct {
	Path string
	Err  error
}

func (e *LocalLogError) Error() string {
	return fmt.Sprintf("writer: local log %s: %v", e.Path, e.Err)
}

func (e *LocalLogError) Unwrap() error { return e.Err }
