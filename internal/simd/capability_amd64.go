//go:build amd64

package simd

import "golang.org/x/sys/cpu"

func init() {
	if cpu.X86.HasAVX2 {
		hostFlags |= AVX2
	}
	if cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW {
		hostFlags |= AVX512
	}
	requested = AVX2
}
