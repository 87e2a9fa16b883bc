package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcalabro/gloombench/internal/simd"
)

func TestRecordLabel(t *testing.T) {
	build := Record{Op: OpBuild, Mode: simd.Scalar, Scale: 1000}
	assert.Equal(t, "[Scalar] bf-build-1000-hashes", build.Label())

	probe := Record{Op: OpProbe, Mode: simd.Vectorized, Scale: 10, BuildScale: 100000}
	assert.Equal(t, "[Vectorized] bf-probe-10-hashes (build=100000)", probe.Label())

	assert.Equal(t, "build", OpBuild.String())
	assert.Equal(t, "probe", OpProbe.String())
	assert.Equal(t, "unknown", Op(7).String())
}

func TestRecordStatistics(t *testing.T) {
	r := Record{
		Scale: 1000,
		Sample: Sample{
			Iterations: 4,
			Epochs: []time.Duration{
				110 * time.Microsecond,
				100 * time.Microsecond,
				90 * time.Microsecond,
				100 * time.Microsecond,
				5 * time.Millisecond, // outlier
			},
		},
	}

	assert.Equal(t, 5, r.NumEpochs())
	assert.Equal(t, 100*time.Microsecond, r.Median())
	assert.Equal(t, 90*time.Microsecond, r.Min())
	assert.Equal(t, 5*time.Millisecond, r.Max())
	assert.Equal(t, 4*(400*time.Microsecond+5*time.Millisecond), r.Total())
	assert.InDelta(t, 10_000_000, r.Throughput(), 1e-6)

	// Deviations 10/110, 0, 10/90, 0, 4900/5000; median is 10/110.
	assert.InDelta(t, 100*10.0/110.0, r.ErrorPercent(), 1e-9)

	// The input order is left alone.
	assert.Equal(t, 110*time.Microsecond, r.Epochs[0])
}

func TestRecordEvenEpochs(t *testing.T) {
	r := Record{Sample: Sample{Epochs: []time.Duration{4, 1, 3, 2}}}
	assert.Equal(t, time.Duration(2), r.Median())
}

func TestRecordEmpty(t *testing.T) {
	var r Record
	assert.Zero(t, r.Median())
	assert.Zero(t, r.Min())
	assert.Zero(t, r.Max())
	assert.Zero(t, r.Total())
	assert.Zero(t, r.Throughput())
	assert.Zero(t, r.ErrorPercent())
}
