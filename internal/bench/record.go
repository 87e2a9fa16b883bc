package bench

import (
	"fmt"
	"slices"
	"time"

	"github.com/jcalabro/gloombench/internal/simd"
)

// Op is the filter operation a record measures.
type Op uint8

const (
	// OpBuild constructs a filter and inserts a whole batch.
	OpBuild Op = iota
	// OpProbe tests a batch against a prebuilt filter.
	OpProbe
)

// String returns "build" or "probe".
func (o Op) String() string {
	switch o {
	case OpBuild:
		return "build"
	case OpProbe:
		return "probe"
	default:
		return "unknown"
	}
}

// Record is one labeled measurement: a matrix cell and its epoch timings.
type Record struct {
	Op           Op
	Collaborator string
	Mode         simd.Mode
	// Flags is what Mode resolved to on the host that produced the record.
	Flags simd.Flags
	// Scale is the number of hashes each operation handled.
	Scale int
	// BuildScale is the reference filter size; zero for build records.
	BuildScale int
	Sample
}

// Label names the cell, e.g. "[Scalar] bf-probe-1000-hashes (build=100000)".
func (r Record) Label() string {
	if r.Op == OpProbe {
		return fmt.Sprintf("[%s] bf-probe-%d-hashes (build=%d)", r.Mode, r.Scale, r.BuildScale)
	}
	return fmt.Sprintf("[%s] bf-build-%d-hashes", r.Mode, r.Scale)
}

// NumEpochs returns how many epochs were timed.
func (r Record) NumEpochs() int {
	return len(r.Epochs)
}

// Median is the reported per-operation time.
func (r Record) Median() time.Duration {
	return median(r.Epochs)
}

// Min returns the fastest epoch.
func (r Record) Min() time.Duration {
	if len(r.Epochs) == 0 {
		return 0
	}
	return slices.Min(r.Epochs)
}

// Max returns the slowest epoch.
func (r Record) Max() time.Duration {
	if len(r.Epochs) == 0 {
		return 0
	}
	return slices.Max(r.Epochs)
}

// Total returns the wall time spent in timed epochs.
func (r Record) Total() time.Duration {
	var total time.Duration
	for _, e := range r.Epochs {
		total += e * time.Duration(r.Iterations)
	}
	return total
}

// ErrorPercent is the median absolute percentage error of the epochs
// around their median, the spread measure next to each reported median.
func (r Record) ErrorPercent() float64 {
	med := r.Median()
	if med <= 0 {
		return 0
	}
	devs := make([]float64, 0, len(r.Epochs))
	for _, e := range r.Epochs {
		if e <= 0 {
			continue
		}
		d := e - med
		if d < 0 {
			d = -d
		}
		devs = append(devs, float64(d)/float64(e))
	}
	return median(devs) * 100
}

// Throughput returns hashes per second at the median.
func (r Record) Throughput() float64 {
	med := r.Median()
	if med <= 0 {
		return 0
	}
	return float64(r.Scale) / med.Seconds()
}

func median[T ~int64 | ~float64](xs []T) T {
	if len(xs) == 0 {
		return 0
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
