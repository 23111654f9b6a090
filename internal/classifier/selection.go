package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// FClassif computes the one-way ANOVA F statistic of every column of m
// against the class labels, with its p-value. Labels must lie in
// [0, nClasses). With one sample per class there is no within-class
// variance and every score is NaN.
func FClassif(m *Matrix, labels []int, nClasses int) (scores, pvalues []float64, err error) {
	n := len(m.Rows)
	if n != len(labels) {
		return nil, nil, fmt.Errorf("f_classif: %d rows but %d labels", n, len(labels))
	}
	if nClasses < 2 {
		return nil, nil, fmt.Errorf("f_classif: need at least 2 classes, got %d", nClasses)
	}

	classCount := make([]float64, nClasses)
	classSum := make([][]float64, nClasses)
	for k := range classSum {
		classSum[k] = make([]float64, m.Cols)
	}
	sum := make([]float64, m.Cols)
	sumSq := make([]float64, m.Cols)
	for i, row := range m.Rows {
		y := labels[i]
		if y < 0 || y >= nClasses {
			return nil, nil, fmt.Errorf("f_classif: label %d out of range", y)
		}
		classCount[y]++
		for k, j := range row.Indices {
			x := row.Values[k]
			classSum[y][j] += x
			sum[j] += x
			sumSq[j] += x * x
		}
	}
	for k, c := range classCount {
		if c == 0 {
			return nil, nil, fmt.Errorf("f_classif: class %d has no samples", k)
		}
	}

	dfBetween := float64(nClasses - 1)
	dfWithin := float64(n - nClasses)
	dist := distuv.F{D1: dfBetween, D2: dfWithin}
	nf := float64(n)

	scores = make([]float64, m.Cols)
	pvalues = make([]float64, m.Cols)
	for j := 0; j < m.Cols; j++ {
		correction := sum[j] * sum[j] / nf
		ssTotal := sumSq[j] - correction
		var ssBetween float64
		for k := range classSum {
			ssBetween += classSum[k][j] * classSum[k][j] / classCount[k]
		}
		ssBetween -= correction
		ssWithin := ssTotal - ssBetween

		f := math.NaN()
		if dfWithin > 0 {
			f = (ssBetween / dfBetween) / (ssWithin / dfWithin)
		}
		scores[j] = f
		switch {
		case math.IsNaN(f):
			pvalues[j] = math.NaN()
		case math.IsInf(f, 1):
			pvalues[j] = 0
		default:
			pvalues[j] = dist.Survival(f)
		}
	}
	return scores, pvalues, nil
}

// ErrNotFitted is returned when a component is used before fitting.
var ErrNotFitted = errors.New("component is not fitted")

// SelectPercentile keeps the columns whose F score is in the top Percentile
// percent.
type SelectPercentile struct {
	Percentile float64

	Scores  []float64
	PValues []float64
	Support []bool
	// Remap maps an input column to its output column, or -1 when dropped.
	Remap []int
	NOut  int
}

// NewSelectPercentile returns a selector keeping the top p percent.
func NewSelectPercentile(p float64) *SelectPercentile {
	return &SelectPercentile{Percentile: p}
}

// Fit scores every column of m and computes the support mask.
func (s *SelectPercentile) Fit(m *Matrix, labels []int, nClasses int) error {
	if s.Percentile < 0 || s.Percentile > 100 {
		return fmt.Errorf("percentile must be in [0, 100], got %v", s.Percentile)
	}
	scores, pvalues, err := FClassif(m, labels, nClasses)
	if err != nil {
		return err
	}
	s.Scores, s.PValues = scores, pvalues
	s.Support = percentileMask(scores, s.Percentile)
	s.Remap = make([]int, len(s.Support))
	s.NOut = 0
	for j, keep := range s.Support {
		if keep {
			s.Remap[j] = s.NOut
			s.NOut++
		} else {
			s.Remap[j] = -1
		}
	}
	return nil
}

// Transform keeps only the selected columns of m.
func (s *SelectPercentile) Transform(m *Matrix) (*Matrix, error) {
	if s.Remap == nil {
		return nil, ErrNotFitted
	}
	out := &Matrix{Rows: make([]Vector, len(m.Rows)), Cols: s.NOut}
	for i, row := range m.Rows {
		var r Vector
		for k, j := range row.Indices {
			if j < len(s.Remap) && s.Remap[j] >= 0 {
				r.Indices = append(r.Indices, s.Remap[j])
				r.Values = append(r.Values, row.Values[k])
			}
		}
		out.Rows[i] = r
	}
	return out, nil
}

func percentileMask(raw []float64, p float64) []bool {
	mask := make([]bool, len(raw))
	switch {
	case p == 100:
		for j := range mask {
			mask[j] = true
		}
		return mask
	case p == 0 || len(raw) == 0:
		return mask
	}

	scores := make([]float64, len(raw))
	for j, x := range raw {
		if math.IsNaN(x) {
			x = -math.MaxFloat64
		}
		scores[j] = x
	}
	threshold := percentile(scores, 100-p)

	kept := 0
	var ties []int
	for j, x := range scores {
		if x > threshold {
			mask[j] = true
			kept++
		} else if x == threshold {
			ties = append(ties, j)
		}
	}
	if len(ties) == 0 {
		return mask
	}

	// A negative remainder drops ties from the end rather than keeping none.
	extra := int(float64(len(scores))*p/100) - kept
	if extra < 0 {
		extra += len(ties)
		if extra < 0 {
			extra = 0
		}
	}
	if extra > len(ties) {
		extra = len(ties)
	}
	for _, j := range ties[:extra] {
		mask[j] = true
	}
	return mask
}

// percentile returns the q-th percentile of xs with linear interpolation.
func percentile(xs []float64, q float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi || sorted[lo] == sorted[hi] {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
