package gloom

import (
	"math/bits"
	"unsafe"
)

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

// Filter is a non-thread-safe bloom filter using cache-line blocked
// one-hashing.
//
// The filter divides memory into 512-bit (64-byte) blocks that fit in a
// single CPU cache line. Each block is partitioned into k segments using
// distinct prime sizes, enabling the one-hashing technique where a single
// hash value generates k independent bit positions via modulo operations.
//
// A Filter is built by one goroutine and may be probed by any number of
// goroutines once building has finished.
type Filter struct {
	raw       []byte   // Raw allocation to keep aligned memory alive for GC
	blocks    []uint64 // 8 uint64s per block = 512 bits (cache-line aligned)
	numBlocks uint64   // Total number of 512-bit blocks
	k         uint32   // Number of hash functions (partitions)
	primes    []uint32 // Prime partition sizes
	offsets   []uint32 // Cumulative offsets within block
	count     uint64   // Number of items added (approximate)
}

// New creates a new bloom filter optimized for the expected number of items
// and desired false positive rate.
func New(expectedItems uint64, fpRate float64) *Filter {
	numBlocks, k, _ := OptimalParams(expectedItems, fpRate)
	return NewWithParams(numBlocks, k)
}

// NewWithParams creates a filter of numBlocks 512-bit blocks and k
// partitions. Zero blocks becomes one; an unsupported k becomes 7.
func NewWithParams(numBlocks uint64, k uint32) *Filter {
	if numBlocks == 0 {
		numBlocks = 1
	}

	k, primes, offsets := layoutFor(k)
	raw, blocks := makeAlignedUint64Slice(int(numBlocks * BlockWords))

	return &Filter{
		raw:       raw,
		blocks:    blocks,
		numBlocks: numBlocks,
		k:         k,
		primes:    primes,
		offsets:   offsets,
	}
}

// makeAlignedUint64Slice allocates a cache-line aligned slice of uint64.
// Returns the raw byte slice (to keep alive for GC) and the aligned uint64 slice.
func makeAlignedUint64Slice(n int) ([]byte, []uint64) {
	// Allocate with extra space for alignment
	raw := make([]byte, n*8+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// Add adds data to the bloom filter.
func (f *Filter) Add(data []byte) {
	blockIdx, intraHash := hashData(data, f.numBlocks)
	f.addWithHash(blockIdx, intraHash)
}

// AddString adds a string to the bloom filter without allocating.
func (f *Filter) AddString(s string) {
	blockIdx, intraHash := hashString(s, f.numBlocks)
	f.addWithHash(blockIdx, intraHash)
}

// AddHash adds a pre-computed 64-bit hash. The hash must already be well
// distributed; it is split as-is into block index and intra-block hash.
func (f *Filter) AddHash(h uint64) {
	blockIdx, intraHash := hashSplit(h, f.numBlocks)
	f.addWithHash(blockIdx, intraHash)
}

// addWithHash sets bits in the filter using pre-computed hash values.
func (f *Filter) addWithHash(blockIdx uint64, intraHash uint32) {
	blockBase := blockIdx * BlockWords

	// One-hashing: same hash value mod different primes gives independent positions
	for i := uint32(0); i < f.k; i++ {
		bitPos := f.offsets[i] + (intraHash % f.primes[i])
		wordIdx := bitPos / 64
		bitIdx := bitPos % 64
		f.blocks[blockBase+uint64(wordIdx)] |= (1 << bitIdx)
	}

	f.count++
}

// Test checks if data might be in the bloom filter.
// Returns true if the data might be present (with false positive probability),
// or false if the data is definitely not present.
func (f *Filter) Test(data []byte) bool {
	blockIdx, intraHash := hashData(data, f.numBlocks)
	return f.testWithHash(blockIdx, intraHash)
}

// TestString checks if a string might be in the bloom filter without allocating.
func (f *Filter) TestString(s string) bool {
	blockIdx, intraHash := hashString(s, f.numBlocks)
	return f.testWithHash(blockIdx, intraHash)
}

// TestHash checks if a pre-computed 64-bit hash might be in the filter.
func (f *Filter) TestHash(h uint64) bool {
	blockIdx, intraHash := hashSplit(h, f.numBlocks)
	return f.testWithHash(blockIdx, intraHash)
}

// testWithHash checks bits in the filter using pre-computed hash values.
func (f *Filter) testWithHash(blockIdx uint64, intraHash uint32) bool {
	blockBase := blockIdx * BlockWords

	for i := uint32(0); i < f.k; i++ {
		bitPos := f.offsets[i] + (intraHash % f.primes[i])
		wordIdx := bitPos / 64
		bitIdx := bitPos % 64
		if f.blocks[blockBase+uint64(wordIdx)]&(1<<bitIdx) == 0 {
			return false
		}
	}

	return true
}

// Clear resets every bit and the item count.
func (f *Filter) Clear() {
	clear(f.blocks)
	f.count = 0
}

// Cap returns the capacity of the filter in bits.
func (f *Filter) Cap() uint64 {
	return f.numBlocks * BlockBits
}

// SizeBytes returns the size of the bit array in bytes.
func (f *Filter) SizeBytes() uint64 {
	return f.numBlocks * BlockBits / 8
}

// K returns the number of hash functions (partitions) used.
func (f *Filter) K() uint32 {
	return f.k
}

// Count returns the approximate number of items added to the filter.
func (f *Filter) Count() uint64 {
	return f.count
}

// NumBlocks returns the number of 512-bit blocks in the filter.
func (f *Filter) NumBlocks() uint64 {
	return f.numBlocks
}

// EstimatedFillRatio estimates the proportion of bits that are set.
func (f *Filter) EstimatedFillRatio() float64 {
	var setBits uint64
	for _, word := range f.blocks {
		setBits += uint64(bits.OnesCount64(word))
	}
	return float64(setBits) / float64(f.numBlocks*BlockBits)
}

// EstimatedFalsePositiveRate estimates the current false positive rate
// based on the number of items added.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.numBlocks, f.k, f.count)
}
