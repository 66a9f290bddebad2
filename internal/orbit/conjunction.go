package orbit

import (
	"runtime"
	"sync"
)

// FindConjunctions returns every unordered satellite pair whose separation is
// strictly below thresholdKm. A pair at exactly the threshold is not a
// conjunction. Inputs with fewer than two satellites return nil immediately.
//
// The outer index range is distributed over a fixed pool of workers; each
// worker scans its outer indices against all higher inner indices into a
// private buffer, and buffers are concatenated after the join. The returned
// set of pairs is deterministic for a given input, but the slice order is
// not: it depends on worker scheduling. Callers must treat the result as an
// unordered collection.
func FindConjunctions(sats []Satellite, thresholdKm float64) []Conjunction {
	return findConjunctions(sats, thresholdKm, runtime.NumCPU())
}

func findConjunctions(sats []Satellite, thresholdKm float64, workers int) []Conjunction {
	if len(sats) < 2 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(sats) {
		workers = len(sats)
	}

	jobs := make(chan int, workers*2)
	locals := make(chan []Conjunction, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var found []Conjunction
			for i := range jobs {
				outer := sats[i]
				for j := i + 1; j < len(sats); j++ {
					d := outer.DistanceTo(sats[j])
					if d < thresholdKm {
						found = append(found, Conjunction{
							NORADID1:            outer.NORADID,
							NORADID2:            sats[j].NORADID,
							DistanceKm:          d,
							RelativeVelocityKmS: outer.RelativeVelocity(sats[j]),
						})
					}
				}
			}
			locals <- found
		}()
	}

	// The last outer index has no higher inner indices to scan.
	for i := 0; i < len(sats)-1; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(locals)
	}()

	var all []Conjunction
	for local := range locals {
		all = append(all, local...)
	}
	return all
}
