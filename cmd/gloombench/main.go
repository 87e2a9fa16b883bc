// Command gloombench measures bulk build and bulk probe throughput of the
// blocked Bloom filter through its scalar and vectorized kernels.
//
// It takes no flags. The report goes to stdout and progress to stderr.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/cpuid/v2"
	"github.com/rs/zerolog"

	"github.com/jcalabro/gloombench/internal/backend"
	"github.com/jcalabro/gloombench/internal/bench"
	"github.com/jcalabro/gloombench/internal/simd"
)

func main() {
	os.Exit(run(bench.DefaultConfig(), backend.Gloom{}, os.Stdout, os.Stderr))
}

// run benchmarks c over cfg and returns the process exit status.
func run(cfg bench.Config, c backend.Collaborator, stdout, stderr io.Writer) int {
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	printHost(stdout)

	d, err := bench.New(cfg,
		backend.NewAdapter(c, backend.DefaultFPRate),
		bench.NewTableSink(stdout), log)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	start := time.Now()
	if err := d.Run(); err != nil {
		log.Error().Err(err).Msg("benchmark failed")
		return 1
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("done")
	return 0
}

func printHost(w io.Writer) {
	c := cpuid.CPU
	fmt.Fprintf(w, "cpu:        %s\n", c.BrandName)
	fmt.Fprintf(w, "cores:      %d physical, %d logical\n", c.PhysicalCores, c.LogicalCores)
	fmt.Fprintf(w, "cache line: %d bytes", c.CacheLine)
	if c.Cache.L2 > 0 {
		fmt.Fprintf(w, ", L2 %s", humanize.IBytes(uint64(c.Cache.L2)))
	}
	fmt.Fprintln(w)

	var vec []string
	for _, id := range []cpuid.FeatureID{cpuid.AVX2, cpuid.AVX512F, cpuid.AVX512BW, cpuid.ASIMD} {
		if c.Supports(id) {
			vec = append(vec, id.String())
		}
	}
	if len(vec) == 0 {
		vec = append(vec, "none")
	}
	fmt.Fprintf(w, "vector:     %s (detected %s)\n", strings.Join(vec, " "), simd.Detect())

	for _, m := range simd.Modes() {
		fmt.Fprintf(w, "%-11s %s\n", m.String()+":", simd.Resolve(m))
	}
}
