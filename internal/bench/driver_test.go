package bench

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalabro/gloombench/internal/backend"
	"github.com/jcalabro/gloombench/internal/hashgen"
	"github.com/jcalabro/gloombench/internal/simd"
)

func fastTiming() Timing {
	return Timing{MinEpochs: 2, MinEpochIterations: 1, MaxEpochIterations: 4}
}

func smallConfig() Config {
	return Config{
		Scales:          []int{8, 64, 256},
		ProbeScales:     []int{10, 100, 1000},
		ReferenceScales: []int{64, 500},
		Selectivity:     0.5,
		Timing:          fastTiming(),
	}
}

func newDriver(t *testing.T, cfg Config, c backend.Collaborator) (*Driver, *Collector) {
	t.Helper()
	sink := &Collector{}
	d, err := New(cfg, backend.NewAdapter(c, backend.DefaultFPRate), sink, zerolog.Nop())
	require.NoError(t, err)
	return d, sink
}

func TestRunEmitsFullMatrix(t *testing.T) {
	cfg := smallConfig()
	d, sink := newDriver(t, cfg, backend.Gloom{})
	require.NoError(t, d.Run())

	require.Len(t, sink.Records, 3*2+2*3*2)
	require.Len(t, sink.Records, cfg.Cells())
	for _, r := range sink.Records {
		assert.Equal(t, "gloom", r.Collaborator)
		assert.Equal(t, 2, r.NumEpochs(), r.Label())
		assert.GreaterOrEqual(t, r.Iterations, 1)
		assert.GreaterOrEqual(t, r.Median(), time.Duration(0))
		assert.GreaterOrEqual(t, r.Min(), time.Duration(0))
		assert.Equal(t, simd.Resolve(r.Mode), r.Flags)
	}

	assert.Equal(t, []string{
		"Bench bf-build:",
		"Bench bf-probe (num-build = 64):",
		"Bench bf-probe (num-build = 500):",
	}, sink.Sections)
}

func TestRunOrder(t *testing.T) {
	d, sink := newDriver(t, smallConfig(), backend.Gloom{})
	require.NoError(t, d.Run())

	var labels []string
	for _, r := range sink.Records {
		labels = append(labels, r.Label())
	}
	assert.Equal(t, []string{
		"[Scalar] bf-build-8-hashes",
		"[Vectorized] bf-build-8-hashes",
		"[Scalar] bf-build-64-hashes",
		"[Vectorized] bf-build-64-hashes",
		"[Scalar] bf-build-256-hashes",
		"[Vectorized] bf-build-256-hashes",
		"[Scalar] bf-probe-10-hashes (build=64)",
		"[Vectorized] bf-probe-10-hashes (build=64)",
		"[Scalar] bf-probe-100-hashes (build=64)",
		"[Vectorized] bf-probe-100-hashes (build=64)",
		"[Scalar] bf-probe-1000-hashes (build=64)",
		"[Vectorized] bf-probe-1000-hashes (build=64)",
		"[Scalar] bf-probe-10-hashes (build=500)",
		"[Vectorized] bf-probe-10-hashes (build=500)",
		"[Scalar] bf-probe-100-hashes (build=500)",
		"[Vectorized] bf-probe-100-hashes (build=500)",
		"[Scalar] bf-probe-1000-hashes (build=500)",
		"[Vectorized] bf-probe-1000-hashes (build=500)",
	}, labels)
}

func TestRetainedBatchesReleased(t *testing.T) {
	d, _ := newDriver(t, smallConfig(), backend.Gloom{})

	require.NoError(t, d.RunBuild())
	// 64 is both a build and a reference scale; 500 is generated on demand.
	require.Len(t, d.retained, 1)
	assert.Len(t, d.retained[64], 64)

	require.NoError(t, d.RunProbe())
	assert.Empty(t, d.retained)
}

func TestProbeOnly(t *testing.T) {
	d, sink := newDriver(t, smallConfig(), backend.Blobloom{})
	require.NoError(t, d.RunProbe())
	assert.Len(t, sink.Records, 2*3*2)
	for _, r := range sink.Records {
		assert.Equal(t, OpProbe, r.Op)
		assert.Equal(t, "blobloom", r.Collaborator)
	}
}

func TestInvalidSelectivitySkipsCell(t *testing.T) {
	cfg := Config{
		Scales:          []int{4, 64},
		ProbeScales:     []int{16, 32},
		ReferenceScales: []int{4, 64},
		Selectivity:     0.1,
		Timing:          fastTiming(),
	}
	d, sink := newDriver(t, cfg, backend.Gloom{})

	err := d.Run()
	require.ErrorIs(t, err, hashgen.ErrInvalidSelectivity)

	// Build 4 at 10% leaves nothing to sample; every other cell still runs.
	assert.Len(t, sink.Records, 2*2+1*2*2)
	for _, r := range sink.Records {
		if r.Op == OpProbe {
			assert.Equal(t, 64, r.BuildScale)
		}
	}
}

// countingCollaborator builds gloom filters and logs every construction and
// every bulk probe in call order.
type countingCollaborator struct {
	builds []simd.Flags
	finds  []int // index into builds of the filter each FindBatch hit
}

func (c *countingCollaborator) Name() string { return "counting" }

func (c *countingCollaborator) New(flags simd.Flags, capacity uint64, fpRate float64) (backend.Filter, error) {
	f, err := backend.Gloom{}.New(flags, capacity, fpRate)
	if err != nil {
		return nil, err
	}
	c.builds = append(c.builds, flags)
	return &countingFilter{Filter: f, owner: c, id: len(c.builds) - 1}, nil
}

type countingFilter struct {
	backend.Filter
	owner *countingCollaborator
	id    int
}

func (f *countingFilter) FindBatch(flags simd.Flags, hashes []uint64, out []byte) {
	f.owner.finds = append(f.owner.finds, f.id)
	f.Filter.FindBatch(flags, hashes, out)
}

func TestProbeReusesOneScalarFilterPerReference(t *testing.T) {
	cfg := smallConfig()
	c := &countingCollaborator{}
	d, sink := newDriver(t, cfg, c)
	require.NoError(t, d.RunProbe())
	require.Len(t, sink.Records, len(cfg.ReferenceScales)*len(cfg.ProbeScales)*2)

	require.Len(t, c.builds, len(cfg.ReferenceScales))
	for i, flags := range c.builds {
		assert.Equal(t, simd.Resolve(simd.Scalar), flags, "build %d", i)
		assert.True(t, flags.Empty(), "build %d", i)
	}

	// Every probe hits the filter of the current sweep, and sweeps run in
	// order, so no filter was constructed between two probes of one sweep.
	require.NotEmpty(t, c.finds)
	assert.Equal(t, 0, c.finds[0])
	for i := 1; i < len(c.finds); i++ {
		prev, cur := c.finds[i-1], c.finds[i]
		assert.True(t, cur == prev || cur == prev+1, "probe %d hit filter %d after %d", i, cur, prev)
	}
	assert.Equal(t, len(cfg.ReferenceScales)-1, c.finds[len(c.finds)-1])

	// Each sweep probes every cell in both modes against its own filter.
	perFilter := make(map[int]int)
	for _, id := range c.finds {
		perFilter[id]++
	}
	for id := range c.builds {
		assert.GreaterOrEqual(t, perFilter[id], len(cfg.ProbeScales)*2*cfg.Timing.MinEpochs, "filter %d", id)
	}
}

func TestBuildMatrixBuildsPerMode(t *testing.T) {
	cfg := smallConfig()
	c := &countingCollaborator{}
	d, _ := newDriver(t, cfg, c)
	require.NoError(t, d.RunBuild())

	var scalar, vector int
	for _, flags := range c.builds {
		if flags == simd.Resolve(simd.Vectorized) {
			vector++
		}
		if flags.Empty() {
			scalar++
		}
	}
	assert.Empty(t, c.finds)
	assert.GreaterOrEqual(t, scalar, len(cfg.Scales)*cfg.Timing.MinEpochs)
	assert.GreaterOrEqual(t, vector, len(cfg.Scales)*cfg.Timing.MinEpochs)
}

type brokenCollaborator struct{}

func (brokenCollaborator) Name() string { return "broken" }

func (brokenCollaborator) New(simd.Flags, uint64, float64) (backend.Filter, error) {
	return nil, errors.New("cannot allocate")
}

func TestBackendFailureIsFatal(t *testing.T) {
	d, sink := newDriver(t, smallConfig(), brokenCollaborator{})

	err := d.Run()
	require.ErrorIs(t, err, backend.ErrBackendFailure)
	assert.Empty(t, sink.Records)

	err = d.RunProbe()
	require.ErrorIs(t, err, backend.ErrBackendFailure)
	assert.Empty(t, sink.Records)
}

type failingSink struct{ Collector }

func (s *failingSink) Emit(Record) error { return errors.New("disk full") }

func TestSinkErrorStopsRun(t *testing.T) {
	d, err := New(smallConfig(), backend.NewAdapter(backend.Gloom{}, backend.DefaultFPRate), &failingSink{}, zerolog.Nop())
	require.NoError(t, err)
	require.EqualError(t, d.Run(), "disk full")
}

func TestNewRejectsBadInput(t *testing.T) {
	adapter := backend.NewAdapter(backend.Gloom{}, backend.DefaultFPRate)

	_, err := New(Config{}, adapter, &Collector{}, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(smallConfig(), nil, &Collector{}, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(smallConfig(), adapter, nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}
