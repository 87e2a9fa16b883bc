// Package bench drives the build and probe benchmark matrices.
//
// Every cell is an independent unit of work: inputs are generated (or a
// retained reference batch is reused) outside the timed region, the
// operation is timed for a fixed number of epochs, one Record is emitted
// and the cell's scratch is dropped. The only state carried between cells
// is the set of build batches the probe matrix needs and, for the length of
// one reference sweep, the filter built from that batch.
package bench

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/jcalabro/gloombench/internal/backend"
	"github.com/jcalabro/gloombench/internal/hashgen"
	"github.com/jcalabro/gloombench/internal/simd"
)

// Driver runs the configured matrix against one adapter. It is not safe
// for concurrent use.
type Driver struct {
	cfg      Config
	adapter  *backend.Adapter
	sink     Sink
	log      zerolog.Logger
	retained map[int]hashgen.Batch
}

// New validates cfg and returns a driver that reports to sink.
func New(cfg Config, adapter *backend.Adapter, sink Sink, log zerolog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if adapter == nil || sink == nil {
		return nil, fmt.Errorf("%w: adapter and sink are required", ErrInvalidConfig)
	}
	return &Driver{
		cfg:      cfg,
		adapter:  adapter,
		sink:     sink,
		log:      log.With().Str("collaborator", adapter.Name()).Logger(),
		retained: make(map[int]hashgen.Batch),
	}, nil
}

// Run executes the build matrix then the probe matrix. A backend failure
// stops the run at once. A probe cell whose selectivity leaves nothing to
// sample is skipped; those errors are joined and returned once the run
// completes.
func (d *Driver) Run() error {
	if err := d.RunBuild(); err != nil {
		return err
	}
	return d.RunProbe()
}

// RunBuild times a bulk build at every scale, Scalar before Vectorized.
func (d *Driver) RunBuild() error {
	if err := d.sink.Section("Bench bf-build:"); err != nil {
		return err
	}

	for _, scale := range d.cfg.Scales {
		batch := hashgen.Build(scale)
		if slices.Contains(d.cfg.ReferenceScales, scale) {
			d.retained[scale] = batch
		}
		d.log.Debug().Int("scale", scale).Msg("generated build batch")

		for _, mode := range simd.Modes() {
			sample, err := d.cfg.Timing.Measure(func() error {
				_, err := d.adapter.Build(batch, mode)
				return err
			})
			if err != nil {
				return fmt.Errorf("build %d hashes (%s): %w", scale, mode, err)
			}
			if err := d.emit(Record{Op: OpBuild, Mode: mode, Scale: scale, Sample: sample}); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunProbe builds one filter per reference scale with the scalar path and
// times bulk probes of every probe scale against it, Scalar before
// Vectorized.
func (d *Driver) RunProbe() error {
	var skipped []error

	for _, buildScale := range d.cfg.ReferenceScales {
		if err := d.sink.Section(fmt.Sprintf("Bench bf-probe (num-build = %d):", buildScale)); err != nil {
			return err
		}

		build, ok := d.retained[buildScale]
		if !ok {
			build = hashgen.Build(buildScale)
		}
		h, err := d.adapter.Build(build, simd.Scalar)
		if err != nil {
			return fmt.Errorf("reference filter of %d hashes: %w", buildScale, err)
		}
		d.logReference(h)

		for _, scale := range d.cfg.ProbeScales {
			err := d.probeCells(h, build, buildScale, scale)
			if errors.Is(err, hashgen.ErrInvalidSelectivity) {
				d.log.Error().Err(err).Int("build", buildScale).Int("scale", scale).Msg("skipping probe cell")
				skipped = append(skipped, err)
				continue
			}
			if err != nil {
				return err
			}
		}

		delete(d.retained, buildScale)
	}

	return errors.Join(skipped...)
}

func (d *Driver) probeCells(h *backend.Handle, build hashgen.Batch, buildScale, scale int) error {
	probe, err := hashgen.Probe(build, scale, d.cfg.Selectivity)
	if err != nil {
		return fmt.Errorf("probe %d hashes (build=%d): %w", scale, buildScale, err)
	}
	out := backend.NewBitmap(len(probe))

	for _, mode := range simd.Modes() {
		sample, err := d.cfg.Timing.Measure(func() error {
			return d.adapter.ProbeInto(h, probe, mode, out)
		})
		if err != nil {
			return fmt.Errorf("probe %d hashes (build=%d, %s): %w", scale, buildScale, mode, err)
		}
		err = d.emit(Record{Op: OpProbe, Mode: mode, Scale: scale, BuildScale: buildScale, Sample: sample})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) emit(r Record) error {
	r.Collaborator = d.adapter.Name()
	r.Flags = d.adapter.Flags(r.Mode)

	d.log.Debug().
		Str("cell", r.Label()).
		Stringer("flags", r.Flags).
		Dur("median", r.Median()).
		Int("epochs", r.NumEpochs()).
		Int("iterations", r.Iterations).
		Msg("measured")

	return d.sink.Emit(r)
}

func (d *Driver) logReference(h *backend.Handle) {
	ev := d.log.Info().
		Uint64("capacity", h.Capacity()).
		Str("size", humanize.IBytes(h.SizeBytes()))
	if fill, fpRate, ok := h.Estimates(); ok {
		ev = ev.Float64("fill_ratio", fill).Float64("est_fp_rate", fpRate)
	}
	ev.Msg("built reference filter")
}
