package orbit

// PairwiseDistances computes the full n×n distance matrix for the given
// satellites. The matrix is symmetric with a zero diagonal; an empty input
// yields an empty matrix.
//
// This kernel runs single-threaded on purpose: it is the O(n²) reference
// baseline the parallel kernels are cross-checked against in tests.
func PairwiseDistances(sats []Satellite) [][]float64 {
	n := len(sats)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := sats[i].DistanceTo(sats[j])
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}
