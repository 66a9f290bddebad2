package orbit

import (
	"math"
	"runtime"
	"sync"
)

// FindClosestApproaches returns, for each satellite, the nearest other
// satellite in the list. Results line up with the input order: result[i]
// describes sats[i]. Ties are broken by the lowest scan index. Inputs with
// fewer than two satellites return nil.
//
// Each row's inner scan is independent, so rows are fanned out over a bounded
// set of goroutines that each write only their own result slot; no further
// ordering work is needed after the join.
func FindClosestApproaches(sats []Satellite) []ClosestApproach {
	return findClosestApproaches(sats, runtime.NumCPU())
}

func findClosestApproaches(sats []Satellite, workers int) []ClosestApproach {
	if len(sats) < 2 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]ClosestApproach, len(sats))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range sats {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			minDist := math.MaxFloat64
			closest := 0
			for j := range sats {
				if j == i {
					continue
				}
				if d := sats[i].DistanceTo(sats[j]); d < minDist {
					minDist = d
					closest = j
				}
			}
			results[i] = ClosestApproach{
				NORADID:        sats[i].NORADID,
				ClosestNORADID: sats[closest].NORADID,
				DistanceKm:     minDist,
			}
		}(i)
	}

	wg.Wait()
	return results
}
