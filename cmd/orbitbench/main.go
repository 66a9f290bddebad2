// Command orbitbench measures the conjunction-analysis kernels on synthetic
// LEO constellations of increasing size and reports run-time statistics.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/recepsuluker/OrbitGuardAI/internal/orbit"
)

func main() {
	var (
		sizesFlag   = flag.String("sizes", "10,50,100,500", "comma-separated constellation sizes")
		repeats     = flag.Int("repeats", 5, "timed runs per size")
		thresholdKm = flag.Float64("threshold", 10, "conjunction threshold in km")
		seed        = flag.Int64("seed", 42, "constellation generator seed")
	)
	flag.Parse()

	sizes, err := parseSizes(*sizesFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -sizes:", err)
		os.Exit(1)
	}

	fmt.Printf("orbitbench: %d sizes, %d repeats, threshold %.1f km, %d CPUs\n\n",
		len(sizes), *repeats, *thresholdKm, runtime.NumCPU())
	fmt.Printf("%8s  %-22s %12s %12s %10s\n", "n", "kernel", "mean", "stddev", "results")

	for _, n := range sizes {
		sats := randomConstellation(n, *seed)

		verify(sats, *thresholdKm)

		report(n, "pairwise_distances", *repeats, func() int {
			m := orbit.PairwiseDistances(sats)
			return len(m)
		})
		report(n, "conjunctions", *repeats, func() int {
			return len(orbit.FindConjunctions(sats, *thresholdKm))
		})
		report(n, "closest_approaches", *repeats, func() int {
			return len(orbit.FindClosestApproaches(sats))
		})
		fmt.Println()
	}
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad size %q", part)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

// report times fn repeats times and prints mean and stddev.
func report(n int, kernel string, repeats int, fn func() int) {
	durations := make([]float64, repeats)
	var results int
	for i := range durations {
		start := time.Now()
		results = fn()
		durations[i] = time.Since(start).Seconds()
	}

	mean, stddev := stat.MeanStdDev(durations, nil)
	if math.IsNaN(stddev) {
		stddev = 0 // single repeat
	}
	fmt.Printf("%8d  %-22s %12s %12s %10d\n",
		n, kernel, formatSeconds(mean), formatSeconds(stddev), results)
}

func formatSeconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond).String()
}

// verify cross-checks the parallel conjunction kernel against the distance
// matrix before timing anything.
func verify(sats []orbit.Satellite, thresholdKm float64) {
	matrix := orbit.PairwiseDistances(sats)
	var want int
	for i := range matrix {
		for j := i + 1; j < len(matrix); j++ {
			if matrix[i][j] < thresholdKm {
				want++
			}
		}
	}
	got := len(orbit.FindConjunctions(sats, thresholdKm))
	if got != want {
		fmt.Fprintf(os.Stderr, "kernel mismatch at n=%d: conjunctions=%d, matrix says %d\n",
			len(sats), got, want)
		os.Exit(1)
	}
}

// randomConstellation builds n satellites on randomized LEO shells between
// roughly 400 and 1400 km altitude.
func randomConstellation(n int, seed int64) []orbit.Satellite {
	rng := rand.New(rand.NewSource(seed))
	sats := make([]orbit.Satellite, 0, n)
	for i := 0; i < n; i++ {
		radius := 6771.0 + rng.Float64()*1000.0
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)

		pos := []float64{
			radius * math.Sin(phi) * math.Cos(theta),
			radius * math.Sin(phi) * math.Sin(theta),
			radius * math.Cos(phi),
		}
		// Circular-orbit speed, direction tangential to the radius vector.
		speed := math.Sqrt(398600.4418 / radius)
		vel := []float64{
			-speed * math.Sin(theta),
			speed * math.Cos(theta),
			0,
		}

		sat, err := orbit.NewSatellite(80000+i, pos, vel)
		if err != nil {
			fmt.Fprintln(os.Stderr, "constellation generation failed:", err)
			os.Exit(1)
		}
		sats = append(sats, sat)
	}
	return sats
}
