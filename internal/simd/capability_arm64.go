//go:build arm64

package simd

import "golang.org/x/sys/cpu"

func init() {
	if cpu.ARM64.HasASIMD {
		hostFlags |= NEON
	}
	requested = NEON
}
