// internal/acquire/assemble_test.go
package acquire

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/poller"
)

func TestAssembler_Build(t *testing.T) {
	fields := []config.FieldConfig{
		{Title: "Time", Source: config.SourceTimestamp},
		{Title: "CPU", Source: config.SourceCPUTemperature},
		{Title: "SOC", Source: "BATTERY.SOC"},
		{Title: "Load", Source: "INVERTER.Load"},
		{Title: "CPU_again", Source: config.SourceCPUTemperature},
	}
	reads := 0
	a := NewAssembler(fields, func() (string, error) {
		reads++
		return "48.3", nil
	})

	res := poller.PollResult{
		At:     time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Values: map[string]string{"BATTERY.SOC": "80"},
	}

	r, err := a.Build(res)
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}

	want := []string{"2024-05-06 07:08:09", "48.3", "80", "none", "48.3"}
	if got := r.Fields(); len(got) != len(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	for i, w := range want {
		if r.Field(i) != w {
			t.Fatalf("field %d: got=%q want=%q", i, r.Field(i), w)
		}
	}
	if reads != 1 {
		t.Fatalf("cpu temperature read %d times per record", reads)
	}
	if a.Len() != 5 {
		t.Fatalf("Len()=%d", a.Len())
	}
}

func TestAssembler_CPUTemperatureUnavailable(t *testing.T) {
	fields := []config.FieldConfig{{Title: "CPU", Source: config.SourceCPUTemperature}}

	a := NewAssembler(fields, func() (string, error) { return "", errors.New("no thermal zone") })
	r, err := a.Build(poller.PollResult{})
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}
	if r.Field(0) != "none" {
		t.Fatalf("got=%q want=none", r.Field(0))
	}

	if r, _ := NewAssembler(fields, nil).Build(poller.PollResult{}); r.Field(0) != "none" {
		t.Fatalf("nil reader: got=%q want=none", r.Field(0))
	}
}

func TestAssembler_RejectsSeparatorInValue(t *testing.T) {
	fields := []config.FieldConfig{{Title: "X", Source: "N.x"}}
	a := NewAssembler(fields, nil)

	if _, err := a.Build(poller.PollResult{Values: map[string]string{"N.x": "1,2"}}); err == nil {
		t.Fatalf("expected separator error")
	}
}
