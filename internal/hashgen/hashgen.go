// Package hashgen produces the synthetic hash workloads the benchmark
// driver feeds to the filter.
//
// Build batches are uniform over the full 64-bit range. Probe batches are
// drawn with replacement from a prefix of a build batch whose length is
// set by a selectivity, so the number of distinct values that can match is
// decoupled from the number of probes issued.
//
// Every call seeds a fresh generator from the operating system's entropy
// source. Runs are not reproducible and are not meant to be.
package hashgen

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/zeebo/xxh3"
)

// ErrInvalidSelectivity is returned when a selectivity leaves fewer than
// one eligible build value.
var ErrInvalidSelectivity = errors.New("gloombench: invalid selectivity")

// Batch is an ordered, fixed-length sequence of 64-bit hashes. A Batch is
// read-only once produced.
type Batch []uint64

// Len returns the number of hashes in the batch.
func (b Batch) Len() int {
	return len(b)
}

// Build returns count hashes sampled uniformly and independently over the
// full uint64 range. Duplicates are possible. A negative count yields an
// empty batch.
func Build(count int) Batch {
	if count < 0 {
		count = 0
	}
	r := newRand()
	b := make(Batch, count)
	for i := range b {
		b[i] = r.Uint64()
	}
	return b
}

// Eligible returns floor(buildLen × sel), the length of the build prefix a
// probe batch may sample from.
func Eligible(buildLen int, sel float64) (int, error) {
	if math.IsNaN(sel) || sel <= 0 || sel > 1 {
		return 0, fmt.Errorf("%w: %v is outside (0, 1]", ErrInvalidSelectivity, sel)
	}
	eligible := int(math.Floor(float64(buildLen) * sel))
	if eligible < 1 {
		return 0, fmt.Errorf("%w: %v of %d build values leaves none eligible", ErrInvalidSelectivity, sel, buildLen)
	}
	return eligible, nil
}

// Probe returns count hashes drawn uniformly with replacement from
// build[:Eligible(len(build), sel)]. Every probe is therefore a true member
// of build.
func Probe(build Batch, count int, sel float64) (Batch, error) {
	eligible, err := Eligible(len(build), sel)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		count = 0
	}

	r := newRand()
	b := make(Batch, count)
	for i := range b {
		b[i] = build[r.IntN(eligible)]
	}
	return b, nil
}

// FromKeys hashes keys with xxh3, the hash the filter applies to byte keys.
func FromKeys(keys [][]byte) Batch {
	b := make(Batch, len(keys))
	for i, k := range keys {
		b[i] = xxh3.Hash(k)
	}
	return b
}

func newRand() *rand.Rand {
	var seed [32]byte
	crand.Read(seed[:]) // never fails since Go 1.24
	return rand.New(rand.NewChaCha8(seed))
}
