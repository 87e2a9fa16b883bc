// Package simd selects the hardware code path handed to the filter
// collaborator.
//
// The harness only knows two modes. Scalar always resolves to the empty
// flag set so the collaborator runs its reference kernel. Vectorized
// resolves to the vector extension this build targets, intersected with
// what the running CPU reports, so a benchmark never requests
// instructions the host cannot execute.
package simd

import "strings"

// Mode is the code path requested for a benchmark cell.
type Mode uint8

const (
	// Scalar forces the one-value-at-a-time reference path.
	Scalar Mode = iota
	// Vectorized requests the wide vector path when the CPU supports it.
	Vectorized
)

// Modes returns every mode in run order.
func Modes() []Mode {
	return []Mode{Scalar, Vectorized}
}

// String returns the label used in benchmark output.
func (m Mode) String() string {
	switch m {
	case Scalar:
		return "Scalar"
	case Vectorized:
		return "Vectorized"
	default:
		return "unknown"
	}
}

// Flags is a set of vector instruction extensions.
type Flags uint32

const (
	// AVX2 is the x86-64 256-bit integer extension.
	AVX2 Flags = 1 << iota
	// AVX512 is x86-64 AVX-512 Foundation plus Byte/Word.
	AVX512
	// NEON is ARM64 Advanced SIMD.
	NEON
)

// Has reports whether every flag in other is set in f.
func (f Flags) Has(other Flags) bool {
	return other != 0 && f&other == other
}

// Empty reports whether no extension is set.
func (f Flags) Empty() bool {
	return f == 0
}

// String lists the set extensions, or "none".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	if f&AVX2 != 0 {
		names = append(names, "avx2")
	}
	if f&AVX512 != 0 {
		names = append(names, "avx512")
	}
	if f&NEON != 0 {
		names = append(names, "neon")
	}
	return strings.Join(names, "+")
}

// Set by the platform-specific init.
var (
	hostFlags Flags
	requested Flags
)

// Detect returns the extensions the running CPU supports.
func Detect() Flags {
	return hostFlags
}

// Requested returns the vector extension this build asks for in
// Vectorized mode.
func Requested() Flags {
	return requested
}

// Resolve maps a mode to the flag set passed to the collaborator on this
// host. Build and probe call sites both go through here.
func Resolve(mode Mode) Flags {
	return ResolveWith(mode, hostFlags)
}

// ResolveWith is Resolve against an explicit host capability set.
func ResolveWith(mode Mode, host Flags) Flags {
	if mode != Vectorized {
		return 0
	}
	return host & requested
}
