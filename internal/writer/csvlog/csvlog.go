// internal/writer/csvlog/csvlog.go
package csvlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/tamzrod/energy-relay/internal/record"
)

// Log is the append-only local record log. The header row is written
// only when the file is new or empty.
type Log struct {
	path   string
	header []string

	mu sync.Mutex
}

func New(path string, header []string) *Log {
	h := make([]string, len(header))
	copy(h, header)
	return &Log{path: path, header: h}
}

func (l *Log) Path() string { return l.path }

// Append writes exactly one row and syncs it to disk before returning.
func (l *Log) Append(r record.Record) error {
	if r.Len() != len(l.header) {
		return fmt.Errorf("csvlog: record has %d fields, header has %d", r.Len(), len(l.header))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvlog: open %s: %w", l.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("csvlog: stat %s: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		_ = w.Write(l.header)
	}
	_ = w.Write(r.Fields())
	w.Flush()

	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csvlog: write %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csvlog: sync %s: %w", l.path, err)
	}
	return f.Close()
}
