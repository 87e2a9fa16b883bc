package gloom

import "math"

const (
	// BlockBits is the number of bits per block (one cache line).
	BlockBits = 512
	// BlockWords is the number of uint64s per block.
	BlockWords = BlockBits / 64

	minK     = 3
	maxK     = 14
	defaultK = 7
)

// partitionTable holds, for each supported k starting at minK, k strictly
// distinct partition sizes summing to BlockBits. Even k uses only primes.
// Odd k needs one even filler since an odd count of odd numbers cannot sum
// to 512; the filler is kept large to preserve modulo spread.
var partitionTable = [maxK - minK + 1][]uint32{
	{167, 173, 172},
	{109, 127, 137, 139},
	{97, 101, 103, 109, 102},
	{61, 79, 83, 89, 97, 103},
	{61, 67, 71, 79, 83, 89, 62},
	{37, 47, 53, 61, 67, 71, 79, 97},
	{41, 43, 47, 53, 59, 67, 71, 73, 58},
	{31, 37, 41, 43, 47, 53, 59, 61, 67, 73},
	{29, 31, 37, 41, 43, 44, 47, 53, 59, 61, 67},
	{17, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 71},
	{17, 19, 23, 29, 31, 37, 41, 43, 47, 52, 53, 59, 61},
	{11, 13, 17, 19, 23, 29, 31, 37, 41, 47, 53, 59, 61, 71},
}

// OptimalParams sizes a filter for expectedItems at fpRate. It returns the
// block count, the number of partitions k, and the ideal bits per item.
// Zero items is treated as one; fpRate is clamped into (0, 1).
func OptimalParams(expectedItems uint64, fpRate float64) (numBlocks uint64, k uint32, bitsPerItem float64) {
	expectedItems = max(expectedItems, 1)
	switch {
	case fpRate <= 0:
		fpRate = 0.0001
	case fpRate >= 1:
		fpRate = 0.99
	}

	// m/n = -ln(p) / ln(2)^2
	bitsPerItem = -math.Log(fpRate) / (math.Ln2 * math.Ln2)
	numBlocks = uint64(math.Ceil(float64(expectedItems) * bitsPerItem / BlockBits))

	// k = (m/n) ln 2, using m after rounding up to whole blocks.
	actual := float64(numBlocks*BlockBits) / float64(expectedItems)
	k = uint32(math.Round(actual * math.Ln2))
	k = min(max(k, minK), maxK)

	return numBlocks, k, bitsPerItem
}

// GetPrimePartition returns the partition sizes for k, or nil when k is
// outside [3, 14].
func GetPrimePartition(k uint32) []uint32 {
	if k < minK || k > maxK {
		return nil
	}
	return partitionTable[k-minK]
}

// ComputeOffsets returns the starting bit of each partition within a block.
func ComputeOffsets(primes []uint32) []uint32 {
	offsets := make([]uint32, len(primes))
	var next uint32
	for i, p := range primes {
		offsets[i] = next
		next += p
	}
	return offsets
}

// layoutFor resolves k to a supported partition count, falling back to
// defaultK.
func layoutFor(k uint32) (uint32, []uint32, []uint32) {
	primes := GetPrimePartition(k)
	if primes == nil {
		k = defaultK
		primes = GetPrimePartition(k)
	}
	return k, primes, ComputeOffsets(primes)
}

// EstimateFalsePositiveRate returns (1 - e^(-kn/m))^k for a filter of
// numBlocks blocks holding itemsAdded items.
func EstimateFalsePositiveRate(numBlocks uint64, k uint32, itemsAdded uint64) float64 {
	m := float64(numBlocks * BlockBits)
	if m == 0 || itemsAdded == 0 {
		return 0
	}
	kf := float64(k)
	return math.Pow(1-math.Exp(-kf*float64(itemsAdded)/m), kf)
}
