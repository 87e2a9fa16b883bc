package bench

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("gloombench: invalid config")

// Config is the benchmark matrix. It is fixed when the harness is built;
// nothing is read from flags or the environment.
type Config struct {
	// Scales are the build batch sizes, strictly ascending.
	Scales []int
	// ProbeScales are the probe batch sizes swept against every reference
	// filter, strictly ascending.
	ProbeScales []int
	// ReferenceScales are the build sizes of the filters the probe matrix
	// reuses, strictly ascending. A reference scale that is also a build
	// scale reuses that batch.
	ReferenceScales []int
	// Selectivity is the fraction of a reference batch probes may draw from.
	Selectivity float64
	Timing      Timing
}

// DefaultConfig returns the standard matrix: six decades of batch size from
// one thousand to one hundred million hashes, probed against filters of one
// hundred thousand and ten million entries at 10% selectivity.
func DefaultConfig() Config {
	scales := []int{1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000}
	return Config{
		Scales:          scales,
		ProbeScales:     slices.Clone(scales),
		ReferenceScales: []int{100_000, 10_000_000},
		Selectivity:     0.1,
		Timing:          DefaultTiming(),
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	if len(c.Scales) == 0 {
		return fmt.Errorf("%w: no build scales", ErrInvalidConfig)
	}
	if err := checkScales("build", c.Scales); err != nil {
		return err
	}
	if err := checkScales("probe", c.ProbeScales); err != nil {
		return err
	}
	if err := checkScales("reference", c.ReferenceScales); err != nil {
		return err
	}
	if math.IsNaN(c.Selectivity) || c.Selectivity <= 0 || c.Selectivity > 1 {
		return fmt.Errorf("%w: selectivity %v outside (0, 1]", ErrInvalidConfig, c.Selectivity)
	}
	return c.Timing.Validate()
}

// Cells returns the number of records a clean run emits.
func (c Config) Cells() int {
	return len(c.Scales)*2 + len(c.ReferenceScales)*len(c.ProbeScales)*2
}

func checkScales(kind string, scales []int) error {
	for i, s := range scales {
		if s <= 0 {
			return fmt.Errorf("%w: %s scale %d is not positive", ErrInvalidConfig, kind, s)
		}
		if i > 0 && s <= scales[i-1] {
			return fmt.Errorf("%w: %s scales %v are not strictly ascending", ErrInvalidConfig, kind, scales)
		}
	}
	return nil
}

// Timing controls how a single cell is measured.
type Timing struct {
	// MinEpochs is the number of timed epochs per cell.
	MinEpochs int
	// MinEpochIterations is the floor on operations per epoch.
	MinEpochIterations int
	// MaxEpochIterations caps operations per epoch; zero means no cap.
	MaxEpochIterations int
	// MinEpochTime raises iterations per epoch until an epoch is expected
	// to last at least this long.
	MinEpochTime time.Duration
	// Warmup is the number of untimed calls used to estimate the cost of
	// one operation before the epochs start.
	Warmup int
}

// DefaultTiming returns 11 epochs of at least 3 operations and 10ms each,
// after a single warmup call.
func DefaultTiming() Timing {
	return Timing{
		MinEpochs:          11,
		MinEpochIterations: 3,
		MaxEpochIterations: 100_000,
		MinEpochTime:       10 * time.Millisecond,
		Warmup:             1,
	}
}

// Validate reports the first problem with t.
func (t Timing) Validate() error {
	switch {
	case t.MinEpochs < 1:
		return fmt.Errorf("%w: min epochs %d < 1", ErrInvalidConfig, t.MinEpochs)
	case t.MinEpochIterations < 1:
		return fmt.Errorf("%w: min epoch iterations %d < 1", ErrInvalidConfig, t.MinEpochIterations)
	case t.MaxEpochIterations != 0 && t.MaxEpochIterations < t.MinEpochIterations:
		return fmt.Errorf("%w: max epoch iterations %d < min %d", ErrInvalidConfig, t.MaxEpochIterations, t.MinEpochIterations)
	case t.MinEpochTime < 0:
		return fmt.Errorf("%w: negative min epoch time", ErrInvalidConfig)
	case t.Warmup < 0:
		return fmt.Errorf("%w: negative warmup", ErrInvalidConfig)
	}
	return nil
}
