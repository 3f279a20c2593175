// internal/acquire/assemble.go
package acquire

import (
	"github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/poller"
	"github.com/tamzrod/energy-relay/internal/record"
)

// Assembler maps a poll snapshot onto the configured record layout.
type Assembler struct {
	fields  []config.FieldConfig
	cpuTemp func() (string, error)
}

// NewAssembler copies the layout. cpuTemp may be nil.
func NewAssembler(fields []config.FieldConfig, cpuTemp func() (string, error)) *Assembler {
	f := make([]config.FieldConfig, len(fields))
	copy(f, fields)
	return &Assembler{fields: f, cpuTemp: cpuTemp}
}

// Len is N.
func (a *Assembler) Len() int { return len(a.fields) }

// Build produces one record. Points never read carry the Unknown sentinel.
func (a *Assembler) Build(res poller.PollResult) (record.Record, error) {
	out := make([]string, len(a.fields))

	var (
		cpu     string
		cpuRead bool
	)

	for i, f := range a.fields {
		switch f.Source {
		case config.SourceTimestamp:
			out[i] = res.At.Format(record.TimeLayout)

		case config.SourceCPUTemperature:
			if !cpuRead {
				cpuRead = true
				cpu = record.SentinelUnknown
				if a.cpuTemp != nil {
					if v, err := a.cpuTemp(); err == nil {
						cpu = v
					}
				}
			}
			out[i] = cpu

		default:
			v, ok := res.Values[f.Source]
			if !ok {
				v = record.SentinelUnknown
			}
			out[i] = v
		}
	}

	return record.New(out)
}
