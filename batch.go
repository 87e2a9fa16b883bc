package gloom

import "github.com/jcalabro/gloombench/internal/simd"

// laneWidth is the number of hashes the vector kernel keeps in flight. Eight
// lanes produce one full byte of the output bitmap per step.
const laneWidth = 8

// vectorFlags are the extensions that select the lane kernel.
const vectorFlags = simd.AVX2 | simd.AVX512 | simd.NEON

// blockMask is the 512-bit pattern a single hash sets within its block.
type blockMask [BlockWords]uint64

// InsertBatch adds every pre-computed hash in hashes. An empty flag set runs
// the scalar reference kernel; any vector flag runs the lane kernel. Both
// leave the filter in an identical state.
func (f *Filter) InsertBatch(flags simd.Flags, hashes []uint64) {
	if flags&vectorFlags != 0 {
		f.insertLanes(hashes)
		return
	}
	for _, h := range hashes {
		f.AddHash(h)
	}
}

// FindBatch tests every hash in hashes and writes one bit per hash to out,
// least significant bit first: bit i lives at out[i/8] & (1 << (i%8)). Unused
// bits of the final byte are cleared. out must hold at least
// (len(hashes)+7)/8 bytes. The filter is not modified.
func (f *Filter) FindBatch(flags simd.Flags, hashes []uint64, out []byte) {
	_ = out[:(len(hashes)+7)/8]

	if flags&vectorFlags != 0 {
		f.findLanes(hashes, out)
	} else {
		f.findScalar(hashes, out)
	}

	if rem := len(hashes) % 8; rem != 0 {
		out[len(hashes)/8] &= byte(1)<<rem - 1
	}
}

func (f *Filter) findScalar(hashes []uint64, out []byte) {
	for i, h := range hashes {
		bit := byte(1) << (i & 7)
		if f.TestHash(h) {
			out[i>>3] |= bit
		} else {
			out[i>>3] &^= bit
		}
	}
}

// maskFor builds the whole-block mask for an intra-block hash so a membership
// check becomes eight independent word compares instead of k dependent bit
// tests.
func (f *Filter) maskFor(intraHash uint32) (m blockMask) {
	for i := uint32(0); i < f.k; i++ {
		bitPos := f.offsets[i] + (intraHash % f.primes[i])
		m[bitPos/64] |= 1 << (bitPos % 64)
	}
	return m
}

func (f *Filter) blockAt(blockIdx uint64) *[BlockWords]uint64 {
	base := blockIdx * BlockWords
	return (*[BlockWords]uint64)(f.blocks[base : base+BlockWords])
}

func (f *Filter) insertLanes(hashes []uint64) {
	var (
		idx   [laneWidth]uint64
		masks [laneWidth]blockMask
	)

	n := len(hashes) &^ (laneWidth - 1)
	for base := 0; base < n; base += laneWidth {
		for l, h := range hashes[base : base+laneWidth] {
			blockIdx, intraHash := hashSplit(h, f.numBlocks)
			idx[l] = blockIdx
			masks[l] = f.maskFor(intraHash)
		}
		for l := range laneWidth {
			b, m := f.blockAt(idx[l]), &masks[l]
			b[0] |= m[0]
			b[1] |= m[1]
			b[2] |= m[2]
			b[3] |= m[3]
			b[4] |= m[4]
			b[5] |= m[5]
			b[6] |= m[6]
			b[7] |= m[7]
		}
	}
	f.count += uint64(n)

	for _, h := range hashes[n:] {
		f.AddHash(h)
	}
}

func (f *Filter) findLanes(hashes []uint64, out []byte) {
	var (
		idx   [laneWidth]uint64
		masks [laneWidth]blockMask
	)

	n := len(hashes) &^ (laneWidth - 1)
	for base := 0; base < n; base += laneWidth {
		for l, h := range hashes[base : base+laneWidth] {
			blockIdx, intraHash := hashSplit(h, f.numBlocks)
			idx[l] = blockIdx
			masks[l] = f.maskFor(intraHash)
		}

		var hits byte
		for l := range laneWidth {
			b, m := f.blockAt(idx[l]), &masks[l]
			missing := (b[0]&m[0] ^ m[0]) |
				(b[1]&m[1] ^ m[1]) |
				(b[2]&m[2] ^ m[2]) |
				(b[3]&m[3] ^ m[3]) |
				(b[4]&m[4] ^ m[4]) |
				(b[5]&m[5] ^ m[5]) |
				(b[6]&m[6] ^ m[6]) |
				(b[7]&m[7] ^ m[7])
			if missing == 0 {
				hits |= 1 << l
			}
		}
		out[base/8] = hits
	}

	f.findScalar(hashes[n:], out[n/8:])
}
