package bench

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Sink receives the driver's output: a section title before each matrix,
// then one record per cell in run order.
type Sink interface {
	Section(title string) error
	Emit(r Record) error
}

const tableRule = "|-------------------:|-------------------:|--------:|-----------:|----------:|:------------------------\n"

// TableSink renders records as a markdown table, one table per section.
type TableSink struct {
	w          io.Writer
	title      *color.Color
	needHeader bool
}

// NewTableSink writes to w. Section titles are bold when w is a terminal.
func NewTableSink(w io.Writer) *TableSink {
	return &TableSink{w: w, title: color.New(color.Bold)}
}

// Section starts a new table under a bold title.
func (s *TableSink) Section(title string) error {
	s.needHeader = true
	if _, err := fmt.Fprintln(s.w); err != nil {
		return err
	}
	_, err := s.title.Fprintln(s.w, title)
	return err
}

// Emit writes one row, preceded by the table header after a new section.
func (s *TableSink) Emit(r Record) error {
	if s.needHeader {
		s.needHeader = false
		if _, err := fmt.Fprintf(s.w, "\n| %18s | %18s | %7s | %10s | %9s | %s\n",
			"ns/op", "hashes/s", "err%", "epochs", "total", "benchmark"); err != nil {
			return err
		}
		if _, err := io.WriteString(s.w, tableRule); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(s.w, "| %18s | %18s | %6.1f%% | %10s | %9s | `%s`\n",
		humanize.CommafWithDigits(float64(r.Median().Nanoseconds()), 2),
		siRate(r.Throughput()),
		r.ErrorPercent(),
		fmt.Sprintf("%dx%d", r.NumEpochs(), r.Iterations),
		fmt.Sprintf("%.2fs", r.Total().Seconds()),
		r.Label())
	return err
}

// Collector keeps everything in memory.
type Collector struct {
	Sections []string
	Records  []Record
}

// Section records a section title.
func (c *Collector) Section(title string) error {
	c.Sections = append(c.Sections, title)
	return nil
}

// Emit appends r to Records.
func (c *Collector) Emit(r Record) error {
	c.Records = append(c.Records, r)
	return nil
}

// siRate formats x with an SI prefix, rounded to two decimals.
func siRate(x float64) string {
	v, prefix := humanize.ComputeSI(x)
	rounded := math.Round(v*100) / 100
	if rounded >= 1000 {
		// 999.996 k carries into the next prefix.
		scale := math.Pow(10, 3*math.Round(math.Log10(x/v)/3))
		v, prefix = humanize.ComputeSI(rounded * scale)
		rounded = math.Round(v*100) / 100
	}
	return humanize.FtoaWithDigits(rounded, 2) + " " + prefix
}
