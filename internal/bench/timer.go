package bench

import "time"

// Sample is the timing of one cell: the per-operation duration of each
// epoch, and how many operations every epoch ran.
type Sample struct {
	Iterations int
	Epochs     []time.Duration
}

// Measure runs op in a closed loop. Warmup calls estimate the cost of one
// operation and fix the iterations per epoch; then exactly MinEpochs epochs
// are timed. The first error from op aborts the measurement.
func (t Timing) Measure(op func() error) (Sample, error) {
	iters := t.MinEpochIterations
	if t.Warmup > 0 {
		start := time.Now()
		for range t.Warmup {
			if err := op(); err != nil {
				return Sample{}, err
			}
		}
		iters = t.iterationsFor(time.Since(start) / time.Duration(t.Warmup))
	}
	iters = max(iters, 1)

	epochs := make([]time.Duration, max(t.MinEpochs, 1))
	for e := range epochs {
		start := time.Now()
		for range iters {
			if err := op(); err != nil {
				return Sample{}, err
			}
		}
		epochs[e] = time.Since(start) / time.Duration(iters)
	}

	return Sample{Iterations: iters, Epochs: epochs}, nil
}

// iterationsFor returns how many operations of perOp fill MinEpochTime,
// clamped to the configured bounds.
func (t Timing) iterationsFor(perOp time.Duration) int {
	perOp = max(perOp, time.Nanosecond)
	n := int((t.MinEpochTime + perOp - 1) / perOp)
	n = max(n, t.MinEpochIterations)
	if t.MaxEpochIterations > 0 {
		n = min(n, t.MaxEpochIterations)
	}
	return n
}
