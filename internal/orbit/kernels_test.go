package orbit

import (
	"math"
	"math/rand"
	"testing"
)

// randomConstellation generates n satellites at random LEO-ish positions.
// Seeded so failures are reproducible.
func randomConstellation(n int, seed int64) []Satellite {
	rng := rand.New(rand.NewSource(seed))
	sats := make([]Satellite, n)
	for i := range sats {
		r := 6700 + rng.Float64()*1300
		theta := rng.Float64() * 2 * math.Pi
		phi := rng.Float64() * math.Pi
		sats[i] = Satellite{
			NORADID: 25544 + i,
			Position: Vec3{
				r * math.Sin(phi) * math.Cos(theta),
				r * math.Sin(phi) * math.Sin(theta),
				r * math.Cos(phi),
			},
			Velocity: Vec3{
				rng.Float64()*16 - 8,
				rng.Float64()*16 - 8,
				rng.Float64()*16 - 8,
			},
		}
	}
	return sats
}

// pairKey identifies a conjunction independent of report order.
type pairKey struct{ a, b int }

func conjunctionSet(t *testing.T, conjs []Conjunction) map[pairKey]Conjunction {
	t.Helper()
	set := make(map[pairKey]Conjunction, len(conjs))
	for _, c := range conjs {
		k := pairKey{c.NORADID1, c.NORADID2}
		if k.a > k.b {
			k.a, k.b = k.b, k.a
		}
		if _, dup := set[k]; dup {
			t.Fatalf("duplicate conjunction reported for pair %v", k)
		}
		set[k] = c
	}
	return set
}

func TestPairwiseDistances(t *testing.T) {
	sats := randomConstellation(25, 1)
	m := PairwiseDistances(sats)

	if len(m) != len(sats) {
		t.Fatalf("matrix has %d rows, want %d", len(m), len(sats))
	}
	for i := range m {
		if len(m[i]) != len(sats) {
			t.Fatalf("row %d has %d columns, want %d", i, len(m[i]), len(sats))
		}
		if m[i][i] != 0 {
			t.Errorf("diagonal entry m[%d][%d] = %v, want 0", i, i, m[i][i])
		}
		for j := range m[i] {
			if m[i][j] != m[j][i] {
				t.Errorf("matrix not symmetric at (%d,%d): %v vs %v", i, j, m[i][j], m[j][i])
			}
			if want := sats[i].DistanceTo(sats[j]); m[i][j] != want {
				t.Errorf("m[%d][%d] = %v, want %v", i, j, m[i][j], want)
			}
		}
	}
}

func TestPairwiseDistancesEmpty(t *testing.T) {
	m := PairwiseDistances(nil)
	if len(m) != 0 {
		t.Errorf("empty input produced %d rows, want 0", len(m))
	}
}

func TestFindConjunctionsReferencePair(t *testing.T) {
	sats := []Satellite{
		{NORADID: 1, Position: Vec3{7000, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
		{NORADID: 2, Position: Vec3{7005, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
	}

	conjs := FindConjunctions(sats, 10.0)
	if len(conjs) != 1 {
		t.Fatalf("got %d conjunctions, want 1", len(conjs))
	}
	c := conjs[0]
	if c.NORADID1 != 1 || c.NORADID2 != 2 {
		t.Errorf("pair = (%d, %d), want (1, 2) by scan position", c.NORADID1, c.NORADID2)
	}
	if math.Abs(c.DistanceKm-5.0) > 1e-9 {
		t.Errorf("DistanceKm = %v, want 5.0", c.DistanceKm)
	}
	if c.RelativeVelocityKmS != 0 {
		t.Errorf("RelativeVelocityKmS = %v, want 0", c.RelativeVelocityKmS)
	}
}

// TestFindConjunctionsThresholdExclusive verifies that a pair at exactly the
// threshold distance is not reported.
func TestFindConjunctionsThresholdExclusive(t *testing.T) {
	sats := []Satellite{
		{NORADID: 1, Position: Vec3{7000, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
		{NORADID: 2, Position: Vec3{7010, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
	}

	if got := FindConjunctions(sats, 10.0); len(got) != 0 {
		t.Errorf("pair at exactly 10 km reported under threshold 10.0: %v", got)
	}
	if got := FindConjunctions(sats, 10.0+1e-9); len(got) != 1 {
		t.Errorf("pair at 10 km not reported under threshold 10+eps: %v", got)
	}
}

// TestFindConjunctionsSoundAndComplete cross-checks the parallel kernel
// against the sequential distance matrix: a pair appears iff its matrix
// distance is strictly below the threshold.
func TestFindConjunctionsSoundAndComplete(t *testing.T) {
	sats := randomConstellation(120, 2)
	const threshold = 900.0

	m := PairwiseDistances(sats)
	set := conjunctionSet(t, FindConjunctions(sats, threshold))

	idByPair := func(i, j int) pairKey {
		k := pairKey{sats[i].NORADID, sats[j].NORADID}
		if k.a > k.b {
			k.a, k.b = k.b, k.a
		}
		return k
	}

	want := 0
	for i := range sats {
		for j := i + 1; j < len(sats); j++ {
			k := idByPair(i, j)
			c, reported := set[k]
			if m[i][j] < threshold {
				want++
				if !reported {
					t.Errorf("pair %v at %.2f km missing from result", k, m[i][j])
				} else if c.DistanceKm != m[i][j] {
					t.Errorf("pair %v distance %v, matrix says %v", k, c.DistanceKm, m[i][j])
				}
			} else if reported {
				t.Errorf("pair %v at %.2f km reported above threshold", k, m[i][j])
			}
		}
	}
	if want == 0 {
		t.Fatal("test constellation produced no conjunctions; threshold too tight")
	}
	if len(set) != want {
		t.Errorf("got %d conjunctions, want %d", len(set), want)
	}
}

// TestFindConjunctionsWorkerInvariance verifies the reported set does not
// depend on the worker count, only the enumeration order may.
func TestFindConjunctionsWorkerInvariance(t *testing.T) {
	sats := randomConstellation(80, 3)
	const threshold = 1200.0

	base := conjunctionSet(t, findConjunctions(sats, threshold, 1))
	for _, workers := range []int{2, 3, 8, 64} {
		got := conjunctionSet(t, findConjunctions(sats, threshold, workers))
		if len(got) != len(base) {
			t.Fatalf("workers=%d: %d conjunctions, want %d", workers, len(got), len(base))
		}
		for k, c := range base {
			if got[k] != c {
				t.Errorf("workers=%d: pair %v = %+v, want %+v", workers, k, got[k], c)
			}
		}
	}
}

// TestFindConjunctionsPermutationInvariance verifies the set of reported
// pairs (keyed by unordered ids) survives any shuffling of the input.
func TestFindConjunctionsPermutationInvariance(t *testing.T) {
	sats := randomConstellation(60, 4)
	const threshold = 1500.0

	base := conjunctionSet(t, FindConjunctions(sats, threshold))

	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]Satellite, len(sats))
		copy(shuffled, sats)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := conjunctionSet(t, FindConjunctions(shuffled, threshold))
		if len(got) != len(base) {
			t.Fatalf("trial %d: %d conjunctions, want %d", trial, len(got), len(base))
		}
		for k := range base {
			if _, ok := got[k]; !ok {
				t.Errorf("trial %d: pair %v lost after shuffle", trial, k)
			}
		}
	}
}

func TestFindConjunctionsDegenerate(t *testing.T) {
	if got := FindConjunctions(nil, 10); got != nil {
		t.Errorf("empty input: got %v, want nil", got)
	}
	one := []Satellite{satA()}
	if got := FindConjunctions(one, 10); got != nil {
		t.Errorf("singleton input: got %v, want nil", got)
	}
}

// TestFindConjunctionsDuplicateIDs verifies duplicate NORAD ids are treated
// as independent positional entries and cannot corrupt the search.
func TestFindConjunctionsDuplicateIDs(t *testing.T) {
	sats := []Satellite{
		{NORADID: 7, Position: Vec3{7000, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
		{NORADID: 7, Position: Vec3{7001, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
		{NORADID: 7, Position: Vec3{7002, 0, 0}, Velocity: Vec3{0, 7.5, 0}},
	}
	conjs := FindConjunctions(sats, 5.0)
	if len(conjs) != 3 {
		t.Errorf("got %d conjunctions, want 3 (all pairs of the triplet)", len(conjs))
	}
}

func TestFindClosestApproaches(t *testing.T) {
	sats := randomConstellation(50, 6)

	results := FindClosestApproaches(sats)
	if len(results) != len(sats) {
		t.Fatalf("got %d results, want one per satellite (%d)", len(results), len(sats))
	}

	m := PairwiseDistances(sats)
	for i, r := range results {
		if r.NORADID != sats[i].NORADID {
			t.Errorf("result %d is for NORAD %d, want %d (input order)", i, r.NORADID, sats[i].NORADID)
		}

		// Row minimum excluding the diagonal.
		minDist := math.MaxFloat64
		minJ := 0
		for j := range sats {
			if j != i && m[i][j] < minDist {
				minDist = m[i][j]
				minJ = j
			}
		}
		if r.DistanceKm != minDist {
			t.Errorf("result %d distance = %v, row minimum = %v", i, r.DistanceKm, minDist)
		}
		if r.ClosestNORADID != sats[minJ].NORADID {
			t.Errorf("result %d closest = %d, want %d", i, r.ClosestNORADID, sats[minJ].NORADID)
		}
	}
}

// TestFindClosestApproachesTieBreak verifies ties go to the lowest scan index.
func TestFindClosestApproachesTieBreak(t *testing.T) {
	// Satellites 20 and 30 are both exactly 5 km from satellite 10.
	sats := []Satellite{
		{NORADID: 10, Position: Vec3{7000, 0, 0}},
		{NORADID: 20, Position: Vec3{7005, 0, 0}},
		{NORADID: 30, Position: Vec3{6995, 0, 0}},
	}

	results := FindClosestApproaches(sats)
	if results[0].ClosestNORADID != 20 {
		t.Errorf("tie broken to NORAD %d, want 20 (first scanned)", results[0].ClosestNORADID)
	}
}

func TestFindClosestApproachesDegenerate(t *testing.T) {
	if got := FindClosestApproaches(nil); got != nil {
		t.Errorf("empty input: got %v, want nil", got)
	}
	if got := FindClosestApproaches([]Satellite{satA()}); got != nil {
		t.Errorf("singleton input: got %v, want nil", got)
	}
}

// TestFindClosestApproachesWorkerInvariance verifies results are bit-for-bit
// identical regardless of worker count.
func TestFindClosestApproachesWorkerInvariance(t *testing.T) {
	sats := randomConstellation(40, 7)
	base := findClosestApproaches(sats, 1)
	for _, workers := range []int{2, 4, 16} {
		got := findClosestApproaches(sats, workers)
		for i := range base {
			if got[i] != base[i] {
				t.Errorf("workers=%d: result %d = %+v, want %+v", workers, i, got[i], base[i])
			}
		}
	}
}

func BenchmarkFindConjunctions(b *testing.B) {
	sats := randomConstellation(500, 8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindConjunctions(sats, 100.0)
	}
}

func BenchmarkPairwiseDistances(b *testing.B) {
	sats := randomConstellation(500, 9)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PairwiseDistances(sats)
	}
}
