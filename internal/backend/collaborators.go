package backend

import (
	"encoding/binary"
	"fmt"
	"maps"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	atomicbloom "github.com/ericvolp12/atomic-bloom"
	"github.com/greatroar/blobloom"

	gloom "github.com/jcalabro/gloombench"
	"github.com/jcalabro/gloombench/internal/simd"
)

var collaborators = map[string]Collaborator{
	Gloom{}.Name():         Gloom{},
	Blobloom{}.Name():      Blobloom{},
	BitsAndBlooms{}.Name(): BitsAndBlooms{},
	AtomicBloom{}.Name():   AtomicBloom{},
}

// Lookup returns the registered collaborator called name.
func Lookup(name string) (Collaborator, error) {
	c, ok := collaborators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownCollaborator, name, Names())
	}
	return c, nil
}

// Names returns every registered collaborator name in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(collaborators))
}

// Gloom is the module's own blocked filter. It honours the flag set: any
// vector flag selects its lane kernel.
type Gloom struct{}

// Name returns "gloom".
func (Gloom) Name() string { return "gloom" }

// New returns a filter sized for capacity entries at fpRate.
func (Gloom) New(_ simd.Flags, capacity uint64, fpRate float64) (Filter, error) {
	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("false positive rate %v outside (0, 1)", fpRate)
	}
	return gloom.New(capacity, fpRate), nil
}

// Blobloom wraps github.com/greatroar/blobloom, a blocked filter keyed by
// pre-computed 64-bit hashes. It has a single code path and ignores flags.
type Blobloom struct{}

// Name returns "blobloom".
func (Blobloom) Name() string { return "blobloom" }

// New returns a filter sized for capacity entries at fpRate.
func (Blobloom) New(_ simd.Flags, capacity uint64, fpRate float64) (Filter, error) {
	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("false positive rate %v outside (0, 1)", fpRate)
	}
	f := blobloom.NewOptimized(blobloom.Config{
		Capacity: max(capacity, 1),
		FPRate:   fpRate,
	})
	return &blobloomFilter{f: f}, nil
}

type blobloomFilter struct {
	f *blobloom.Filter
}

func (b *blobloomFilter) InsertBatch(_ simd.Flags, hashes []uint64) {
	for _, h := range hashes {
		b.f.Add(h)
	}
}

func (b *blobloomFilter) FindBatch(_ simd.Flags, hashes []uint64, out []byte) {
	writeBits(out, hashes, b.f.Has)
}

func (b *blobloomFilter) SizeBytes() uint64 {
	return b.f.NumBits() / 8
}

// BitsAndBlooms wraps github.com/bits-and-blooms/bloom/v3, a classic
// unblocked filter over byte keys. Hashes are fed as 8 little-endian bytes.
// It ignores flags.
type BitsAndBlooms struct{}

// Name returns "bitsandblooms".
func (BitsAndBlooms) Name() string { return "bitsandblooms" }

// New returns a filter sized for capacity entries at fpRate.
func (BitsAndBlooms) New(_ simd.Flags, capacity uint64, fpRate float64) (Filter, error) {
	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("false positive rate %v outside (0, 1)", fpRate)
	}
	return &babFilter{f: bloom.NewWithEstimates(uint(max(capacity, 1)), fpRate)}, nil
}

type babFilter struct {
	f   *bloom.BloomFilter
	key [8]byte
}

func (b *babFilter) InsertBatch(_ simd.Flags, hashes []uint64) {
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(b.key[:], h)
		b.f.Add(b.key[:])
	}
}

func (b *babFilter) FindBatch(_ simd.Flags, hashes []uint64, out []byte) {
	var key [8]byte
	writeBits(out, hashes, func(h uint64) bool {
		binary.LittleEndian.PutUint64(key[:], h)
		return b.f.Test(key[:])
	})
}

func (b *babFilter) SizeBytes() uint64 {
	return uint64(b.f.Cap()) / 8
}

// AtomicBloom wraps github.com/ericvolp12/atomic-bloom, an unblocked filter
// whose bit array is updated with atomic operations. The harness drives it
// from a single goroutine like the others. Hashes are fed as 8 little-endian
// bytes and flags are ignored.
type AtomicBloom struct{}

// Name returns "atomicbloom".
func (AtomicBloom) Name() string { return "atomicbloom" }

// New returns a filter sized for capacity entries at fpRate.
func (AtomicBloom) New(_ simd.Flags, capacity uint64, fpRate float64) (Filter, error) {
	if fpRate <= 0 || fpRate >= 1 {
		return nil, fmt.Errorf("false positive rate %v outside (0, 1)", fpRate)
	}
	return &atomicFilter{f: atomicbloom.NewWithEstimates(uint(max(capacity, 1)), fpRate)}, nil
}

type atomicFilter struct {
	f   *atomicbloom.BloomFilter
	key [8]byte
}

func (a *atomicFilter) InsertBatch(_ simd.Flags, hashes []uint64) {
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(a.key[:], h)
		a.f.Add(a.key[:])
	}
}

func (a *atomicFilter) FindBatch(_ simd.Flags, hashes []uint64, out []byte) {
	var key [8]byte
	writeBits(out, hashes, func(h uint64) bool {
		binary.LittleEndian.PutUint64(key[:], h)
		return a.f.Test(key[:])
	})
}

func (a *atomicFilter) SizeBytes() uint64 {
	return uint64(a.f.Cap()) / 8
}
