// internal/poller/poller_test.go
package poller

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	cfg "github.com/tamzrod/energy-relay/internal/config"
)

type fakeClient struct {
	failSlave uint8
	regs      map[uint16][]uint16 // by address
	calls     int
	closed    bool
}

func (f *fakeClient) ReadHoldingRegisters(slave uint8, addr, qty uint16) ([]uint16, error) {
	return f.read(slave, addr, qty)
}

func (f *fakeClient) ReadInputRegisters(slave uint8, addr, qty uint16) ([]uint16, error) {
	return f.read(slave, addr, qty)
}

func (f *fakeClient) read(slave uint8, addr, qty uint16) ([]uint16, error) {
	f.calls++
	if f.failSlave != 0 && slave == f.failSlave {
		return nil, errors.New("timeout")
	}
	if r, ok := f.regs[addr]; ok {
		return r, nil
	}
	return make([]uint16, qty), nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func nodes() []Node {
	return []Node{
		{Name: "CONVERTER", Port: "p0", SlaveID: 2, Points: []Point{
			{Name: "AC_Voltage", FC: 3, Address: 10, Quantity: 1, Scale: 1, Decimals: -1},
		}},
		{Name: "BATTERY", Port: "p0", SlaveID: 1, Points: []Point{
			{Name: "SOC", FC: 4, Address: 20, Quantity: 1, Scale: 1, Decimals: -1},
		}},
	}
}

func TestReadAll_Success(t *testing.T) {
	cli := &fakeClient{regs: map[uint16][]uint16{10: {230}, 20: {80}}}

	p, err := New(nodes(), map[string]Client{"p0": cli})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.ReadAll()
	if len(res.Faults) != 0 {
		t.Fatalf("unexpected faults: %v", res.Faults)
	}
	if res.Values["CONVERTER.AC_Voltage"] != "230" || res.Values["BATTERY.SOC"] != "80" {
		t.Fatalf("unexpected values: %v", res.Values)
	}
}

func TestReadAll_NodeFailureKeepsStaleValuesAndContinues(t *testing.T) {
	cli := &fakeClient{regs: map[uint16][]uint16{10: {230}, 20: {80}}}
	p, _ := New(nodes(), map[string]Client{"p0": cli})

	_ = p.ReadAll()

	// Converter (slave 2) now fails; battery changes.
	cli.failSlave = 2
	cli.regs[10] = []uint16{999}
	cli.regs[20] = []uint16{81}

	res := p.ReadAll()
	if len(res.Faults) != 1 || res.Faults[0].Node != "CONVERTER" {
		t.Fatalf("expected one CONVERTER fault, got %v", res.Faults)
	}
	if res.Values["CONVERTER.AC_Voltage"] != "230" {
		t.Fatalf("stale value not retained: %q", res.Values["CONVERTER.AC_Voltage"])
	}
	if res.Values["BATTERY.SOC"] != "81" {
		t.Fatalf("later node not read after failure: %q", res.Values["BATTERY.SOC"])
	}

	var ne *NodeError
	if !errors.As(error(&res.Faults[0]), &ne) {
		t.Fatalf("fault should be a *NodeError")
	}

	// Faults belong to one cycle only.
	cli.failSlave = 0
	if res := p.ReadAll(); len(res.Faults) != 0 {
		t.Fatalf("faults leaked into next cycle: %v", res.Faults)
	}
}

func TestReadAll_AllFailed(t *testing.T) {
	cli := &fakeClient{failSlave: 1}
	n := []Node{{Name: "BATTERY", Port: "p0", SlaveID: 1, Points: []Point{{Name: "SOC", FC: 3, Quantity: 1}}}}
	p, _ := New(n, map[string]Client{"p0": cli})

	res := p.ReadAll()
	if !res.AllFailed(p.NodeCount()) {
		t.Fatalf("expected all nodes failed")
	}
	if _, ok := res.Values["BATTERY.SOC"]; ok {
		t.Fatalf("never-read point must be absent")
	}
}

func TestNew_MissingPortClient(t *testing.T) {
	if _, err := New(nodes(), map[string]Client{}); err == nil {
		t.Fatalf("expected missing client error")
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		pt   Point
		regs []uint16
		want string
	}{
		{Point{Quantity: 1, Scale: 0.1, Decimals: 1}, []uint16{2301}, "230.1"},
		{Point{Quantity: 1, Signed: true, Scale: 1, Decimals: -1}, []uint16{0xfff6}, "-10"},
		{Point{Quantity: 2, Scale: 1, Decimals: -1}, []uint16{0x0001, 0x0000}, "65536"},
		{Point{Quantity: 2, Signed: true, Scale: 0.01, Decimals: 2}, []uint16{0xffff, 0xff9c}, "-1.00"},
		{Point{Quantity: 1, Scale: 0.01, Decimals: 2}, []uint16{98}, "0.98"},
		{Point{Quantity: 1, Signed: true, Scale: 0.001, Decimals: 1}, []uint16{0xffff}, "0.0"},
	}

	for i, c := range cases {
		if got := FormatValue(c.pt, c.regs); got != c.want {
			t.Fatalf("case %d: got=%q want=%q", i, got, c.want)
		}
	}
}

func TestBuild_ClosesOpenedPortsOnFailure(t *testing.T) {
	opened := map[string]*fakeClient{}
	dial := func(p cfg.PortConfig) (Client, error) {
		if p.ID == "usb0" {
			return nil, errors.New("no such device")
		}
		c := &fakeClient{}
		opened[p.ID] = c
		return c, nil
	}

	a := cfg.AcquisitionConfig{
		Ports: []cfg.PortConfig{{ID: "rs485"}, {ID: "usb0"}},
		Nodes: []cfg.NodeConfig{{Name: "X", Port: "rs485", Points: []cfg.PointConfig{{Name: "v", FC: 3, Quantity: 1}}}},
	}

	if _, err := Build(a, dial); err == nil {
		t.Fatalf("expected build error")
	}
	if !opened["rs485"].closed {
		t.Fatalf("opened port not closed after failure")
	}
}

func TestBuild_MapsPoints(t *testing.T) {
	dec := 2
	dial := func(p cfg.PortConfig) (Client, error) { return &fakeClient{regs: map[uint16][]uint16{5: {1234}}}, nil }

	a := cfg.AcquisitionConfig{
		Ports: []cfg.PortConfig{{ID: "rs485"}},
		Nodes: []cfg.NodeConfig{{Name: "INVERTER", Port: "rs485", SlaveID: 3, Points: []cfg.PointConfig{
			{Name: "Output_Frequency", FC: 3, Address: 5, Quantity: 1, Scale: 0.01, Decimals: &dec},
		}}},
	}

	p, err := Build(a, dial)
	if err != nil {
		t.Fatalf("Build() err=%v", err)
	}
	defer p.Close()

	if got := p.ReadAll().Values["INVERTER.Output_Frequency"]; got != "12.34" {
		t.Fatalf("got=%q want=12.34", got)
	}
}

func TestCPUTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	if err := os.WriteFile(path, []byte("48312\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := CPUTemperature(path)
	if err != nil {
		t.Fatalf("CPUTemperature() err=%v", err)
	}
	if got != "48.3" {
		t.Fatalf("got=%q want=48.3", got)
	}

	if _, err := CPUTemperature(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
