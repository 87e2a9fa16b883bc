package simd

import (
	"fmt"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain prints which extensions were detected so CI logs show which
// kernel Vectorized mode actually exercised.
func TestMain(m *testing.M) {
	fmt.Printf("GOOS=%s GOARCH=%s host=%s requested=%s\n",
		runtime.GOOS, runtime.GOARCH, Detect(), Requested())
	os.Exit(m.Run())
}

func TestResolveScalarIsAlwaysEmpty(t *testing.T) {
	hosts := []Flags{0, AVX2, AVX2 | AVX512, NEON, AVX2 | AVX512 | NEON}
	for _, host := range hosts {
		assert.True(t, ResolveWith(Scalar, host).Empty(), "host=%s", host)
	}
	assert.True(t, Resolve(Scalar).Empty())
}

func TestResolveVectorizedIntersectsHost(t *testing.T) {
	assert.True(t, ResolveWith(Vectorized, 0).Empty())

	all := AVX2 | AVX512 | NEON
	got := ResolveWith(Vectorized, all)
	assert.Equal(t, Requested(), got)

	// Never more than the host offers.
	assert.Equal(t, Flags(0), Resolve(Vectorized)&^Detect())
}

func TestResolveUnknownMode(t *testing.T) {
	assert.True(t, ResolveWith(Mode(42), AVX2|NEON).Empty())
}

func TestModesOrder(t *testing.T) {
	require.Equal(t, []Mode{Scalar, Vectorized}, Modes())
	assert.Equal(t, "Scalar", Scalar.String())
	assert.Equal(t, "Vectorized", Vectorized.String())
	assert.Equal(t, "unknown", Mode(9).String())
}

func TestFlags(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{0, "none"},
		{AVX2, "avx2"},
		{AVX2 | AVX512, "avx2+avx512"},
		{NEON, "neon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.flags.String())
	}

	assert.True(t, (AVX2 | AVX512).Has(AVX2))
	assert.False(t, AVX2.Has(AVX512))
	assert.False(t, AVX2.Has(0))
}
