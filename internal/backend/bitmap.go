package backend

import "math/bits"

// Bitmap holds one membership bit per probed hash, least significant bit
// first. It is scratch output and never validated by the harness itself.
type Bitmap []byte

// BytesForBits returns the number of bytes needed for n bits.
func BytesForBits(n int) int {
	return (n + 7) / 8
}

// NewBitmap allocates a zeroed bitmap for n bits.
func NewBitmap(n int) Bitmap {
	return make(Bitmap, BytesForBits(n))
}

// Get reports bit i.
func (b Bitmap) Get(i int) bool {
	return b[i>>3]&(1<<(i&7)) != 0
}

// Count returns the number of set bits.
func (b Bitmap) Count() int {
	var n int
	for _, x := range b {
		n += bits.OnesCount8(x)
	}
	return n
}

// writeBits fills out from a per-hash membership test for collaborators
// without a bulk probe of their own.
func writeBits(out []byte, hashes []uint64, has func(uint64) bool) {
	_ = out[:BytesForBits(len(hashes))]
	for i, h := range hashes {
		bit := byte(1) << (i & 7)
		if has(h) {
			out[i>>3] |= bit
		} else {
			out[i>>3] &^= bit
		}
	}
	if rem := len(hashes) % 8; rem != 0 {
		out[len(hashes)/8] &= byte(1)<<rem - 1
	}
}
