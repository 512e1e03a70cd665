// Package stats times the phases of a check and renders them as a table.
// A Phase is owned by one goroutine; copy it out before reading elsewhere.
package stats

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/rodaine/table"
)

type Phase struct {
	runs  uint32
	nanos uint64
}

// Record adds one run that began at start.
func (p *Phase) Record(start time.Time) {
	p.runs++
	p.nanos += uint64(time.Since(start).Nanoseconds())
}

// Time runs f as one recorded run of p.
func (p *Phase) Time(f func() error) error {
	defer p.Record(time.Now())
	return f()
}

func (p *Phase) Reset() {
	*p = Phase{}
}

func (p Phase) Runs() uint32 {
	return p.runs
}

func (p Phase) Duration() time.Duration {
	return time.Duration(p.nanos)
}

func (p Phase) MicrosPerRun() float64 {
	if p.runs == 0 {
		return 0
	}
	return float64(p.nanos) / float64(p.runs) / 1e3
}

// WriteTable prints one row per phase followed by a total. Phases that
// never ran (the check stopped earlier) show zero runs.
func WriteTable(names []string, phases []Phase, w io.Writer) {
	if len(names) != len(phases) {
		panic("mismatched names and phases lists")
	}
	tbl := table.New("phase", "runs", "us", "us/run")
	var total Phase
	for i, name := range names {
		p := phases[i]
		total.runs += p.runs
		total.nanos += p.nanos
		tbl.AddRow(name, p.runs,
			fmt.Sprintf("%0.1f", float64(p.nanos)/1e3),
			fmt.Sprintf("%0.1f", p.MicrosPerRun()))
	}
	tbl.AddRow("total", total.runs, fmt.Sprintf("%0.1f", float64(total.nanos)/1e3), "")
	tbl.WithWriter(w)
	tbl.Print()
}

func FormatTable(names []string, phases []Phase) string {
	buf := new(bytes.Buffer)
	WriteTable(names, phases, buf)
	return buf.String()
}
