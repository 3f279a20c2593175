// internal/display/panel.go
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tamzrod/energy-relay/internal/config"
	"github.com/tamzrod/energy-relay/internal/record"
)

// Layout is the panel arrangement: one box per component.
type Layout struct {
	Title      string
	Components []Component
}

type Component struct {
	Name   string
	Params []Param
}

// Param shows record field Field under Label.
type Param struct {
	Label string
	Field int
}

// LayoutFrom converts validated display config.
func LayoutFrom(d config.DisplayConfig) Layout {
	l := Layout{Title: d.Title}
	for _, c := range d.Components {
		comp := Component{Name: c.Name}
		for _, p := range c.Parameters {
			comp.Params = append(comp.Params, Param{Label: p.Label, Field: p.Field})
		}
		l.Components = append(l.Components, comp)
	}
	return l
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	timeStyle  = lipgloss.NewStyle().Faint(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginRight(1)
	headStyle  = lipgloss.NewStyle().Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

// Panel renders records to a terminal.
type Panel struct {
	w      io.Writer
	layout Layout

	// ClearScreen homes the cursor and clears before each frame.
	ClearScreen bool
}

func NewPanel(w io.Writer, l Layout) *Panel {
	return &Panel{w: w, layout: l}
}

// Render returns one frame. Field 0 is shown as the time line.
func (p *Panel) Render(r record.Record) string {
	var b strings.Builder

	if p.layout.Title != "" {
		b.WriteString(titleStyle.Render(p.layout.Title))
		b.WriteString("\n")
	}
	b.WriteString(timeStyle.Render(r.Field(0)))
	b.WriteString("\n")

	boxes := make([]string, 0, len(p.layout.Components))
	for _, c := range p.layout.Components {
		lines := []string{headStyle.Render(c.Name + " Parameter")}
		for _, prm := range c.Params {
			lines = append(lines, fmt.Sprintf("%s: %s", prm.Label, valueStyle.Render(r.Field(prm.Field))))
		}
		boxes = append(boxes, boxStyle.Render(strings.Join(lines, "\n")))
	}
	if len(boxes) > 0 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
		b.WriteString("\n")
	}

	return b.String()
}

func (p *Panel) Present(r record.Record) error {
	frame := p.Render(r)
	if p.ClearScreen {
		frame = "\x1b[H\x1b[2J" + frame
	}
	_, err := io.WriteString(p.w, frame)
	return err
}
