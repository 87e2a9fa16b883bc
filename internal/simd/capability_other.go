//go:build !amd64 && !arm64

package simd

// No vector path is wired for this architecture; Vectorized resolves to
// the scalar kernel.
func init() {}
