// Package backend is the seam between the benchmark driver and the Bloom
// filter under test.
//
// A Collaborator constructs capacity-sized filters; a Filter offers bulk
// insert and bulk probe parameterized by a hardware flag set. The Adapter
// turns a simd.Mode into that flag set through simd.Resolve, the single
// place build and probe select their code path.
package backend

import (
	"errors"
	"fmt"

	"github.com/jcalabro/gloombench/internal/simd"
)

// DefaultFPRate is the false positive rate every benchmarked filter is
// sized for. It is not swept.
const DefaultFPRate = 0.01

var (
	// ErrBackendFailure is returned when the collaborator cannot construct,
	// fill or probe a filter. Callers treat it as fatal.
	ErrBackendFailure = errors.New("gloombench: backend failure")

	// ErrBitmapTooShort is returned when a probe output buffer cannot hold
	// one bit per probed hash.
	ErrBitmapTooShort = errors.New("gloombench: bitmap too short")

	// ErrUnknownCollaborator is returned by Lookup for unregistered names.
	ErrUnknownCollaborator = errors.New("gloombench: unknown collaborator")
)

// Filter is a built filter as seen by the harness. InsertBatch is only
// called before the first FindBatch; FindBatch must not modify the filter.
type Filter interface {
	InsertBatch(flags simd.Flags, hashes []uint64)
	FindBatch(flags simd.Flags, hashes []uint64, out []byte)
	SizeBytes() uint64
}

// Collaborator constructs filters sized for capacity entries at fpRate.
type Collaborator interface {
	Name() string
	New(flags simd.Flags, capacity uint64, fpRate float64) (Filter, error)
}

// Handle is a built filter shared read-only between the adapter that made
// it and every probe that uses it.
type Handle struct {
	filter       Filter
	collaborator string
	capacity     uint64
}

// Collaborator returns the name of the collaborator that built the filter.
func (h *Handle) Collaborator() string { return h.collaborator }

// Capacity returns the number of entries the filter was sized for.
func (h *Handle) Capacity() uint64 { return h.capacity }

// SizeBytes returns the memory held by the filter's bit array.
func (h *Handle) SizeBytes() uint64 { return h.filter.SizeBytes() }

// Estimates returns the filter's fill ratio and estimated false positive
// rate when the collaborator reports them.
func (h *Handle) Estimates() (fillRatio, fpRate float64, ok bool) {
	e, ok := h.filter.(interface {
		EstimatedFillRatio() float64
		EstimatedFalsePositiveRate() float64
	})
	if !ok {
		return 0, 0, false
	}
	return e.EstimatedFillRatio(), e.EstimatedFalsePositiveRate(), true
}

// Adapter dispatches build and probe calls to a collaborator.
type Adapter struct {
	c       Collaborator
	fpRate  float64
	resolve func(simd.Mode) simd.Flags
}

// NewAdapter returns an adapter that sizes every filter for fpRate.
func NewAdapter(c Collaborator, fpRate float64) *Adapter {
	return &Adapter{c: c, fpRate: fpRate, resolve: simd.Resolve}
}

// Name returns the collaborator name.
func (a *Adapter) Name() string {
	return a.c.Name()
}

// Flags returns the flag set mode resolves to on this host.
func (a *Adapter) Flags(mode simd.Mode) simd.Flags {
	return a.resolve(mode)
}

// Build constructs a filter sized for len(hashes) entries and inserts the
// whole batch in one call.
func (a *Adapter) Build(hashes []uint64, mode simd.Mode) (h *Handle, err error) {
	defer a.recoverFailure("build", &err)

	flags := a.resolve(mode)
	f, err := a.c.New(flags, uint64(len(hashes)), a.fpRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendFailure, a.c.Name(), err)
	}
	f.InsertBatch(flags, hashes)

	return &Handle{
		filter:       f,
		collaborator: a.c.Name(),
		capacity:     uint64(len(hashes)),
	}, nil
}

// Probe tests every hash against h and returns a freshly allocated bitmap.
func (a *Adapter) Probe(h *Handle, hashes []uint64, mode simd.Mode) (Bitmap, error) {
	out := NewBitmap(len(hashes))
	if err := a.ProbeInto(h, hashes, mode, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProbeInto tests every hash against h, writing bit i of out for hashes[i].
// out must hold at least BytesForBits(len(hashes)) bytes.
func (a *Adapter) ProbeInto(h *Handle, hashes []uint64, mode simd.Mode, out Bitmap) (err error) {
	if h == nil {
		return fmt.Errorf("%w: %s: probe against nil handle", ErrBackendFailure, a.c.Name())
	}
	if need := BytesForBits(len(hashes)); len(out) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrBitmapTooShort, len(out), need)
	}
	defer a.recoverFailure("probe", &err)

	h.filter.FindBatch(a.resolve(mode), hashes, out)
	return nil
}

func (a *Adapter) recoverFailure(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s %s: %v", ErrBackendFailure, a.c.Name(), op, r)
	}
}
