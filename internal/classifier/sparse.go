package classifier

// Vector is a sparse row. Indices are strictly increasing.
type Vector struct {
	Indices []int
	Values  []float64
}

// Matrix is a list of sparse rows over Cols features.
type Matrix struct {
	Rows []Vector
	Cols int
}

// dot returns v·w, ignoring indices outside w.
func dot(v Vector, w []float64) float64 {
	var s float64
	for k, j := range v.Indices {
		if j < len(w) {
			s += v.Values[k] * w[j]
		}
	}
	return s
}

// addScaled performs w += alpha*v.
func addScaled(w []float64, alpha float64, v Vector) {
	for k, j := range v.Indices {
		if j < len(w) {
			w[j] += alpha * v.Values[k]
		}
	}
}
