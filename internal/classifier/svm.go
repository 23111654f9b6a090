package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrTooFewClasses is returned when the training labels hold fewer than two classes.
var ErrTooFewClasses = errors.New("need samples of at least 2 classes")

// LinearSVC is an L2-regularized squared-hinge linear classifier trained in
// the primal. The intercept is learned as the weight of a constant feature
// of value InterceptScaling and is regularized like every other weight.
type LinearSVC struct {
	C                float64
	Tol              float64
	MaxIter          int
	InterceptScaling float64

	Classes   []int
	Coef      [][]float64
	Intercept []float64
	NFeatures int
	// Iterations holds the solver iteration count per separator.
	Iterations []int
}

// NewLinearSVC returns a classifier with C=1 and tolerance 1e-3.
func NewLinearSVC() *LinearSVC {
	return &LinearSVC{C: 1, Tol: 1e-3, MaxIter: 1000, InterceptScaling: 1}
}

// Fit trains one separator for two classes and one per class otherwise.
func (c *LinearSVC) Fit(m *Matrix, labels []int) error {
	if len(m.Rows) != len(labels) {
		return fmt.Errorf("linear svc: %d rows but %d labels", len(m.Rows), len(labels))
	}
	classes := uniqueSorted(labels)
	if len(classes) < 2 {
		return ErrTooFewClasses
	}
	c.Classes = classes
	c.NFeatures = m.Cols
	c.Coef = nil
	c.Intercept = nil
	c.Iterations = nil

	targets := classes
	if len(classes) == 2 {
		targets = classes[1:]
	}
	y := make([]float64, len(labels))
	for _, positive := range targets {
		for i, l := range labels {
			if l == positive {
				y[i] = 1
			} else {
				y[i] = -1
			}
		}
		w, iters := c.solve(m, y)
		c.Coef = append(c.Coef, w[:m.Cols])
		c.Intercept = append(c.Intercept, w[m.Cols]*c.InterceptScaling)
		c.Iterations = append(c.Iterations, iters)
	}
	return nil
}

// DecisionFunction returns one score per separator for every row of m.
func (c *LinearSVC) DecisionFunction(m *Matrix) ([][]float64, error) {
	if c.Coef == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(m.Rows))
	for i, row := range m.Rows {
		scores := make([]float64, len(c.Coef))
		for k, w := range c.Coef {
			scores[k] = dot(row, w) + c.Intercept[k]
		}
		out[i] = scores
	}
	return out, nil
}

// Predict returns the predicted class label of every row of m.
func (c *LinearSVC) Predict(m *Matrix) ([]int, error) {
	scores, err := c.DecisionFunction(m)
	if err != nil {
		return nil, err
	}
	pred := make([]int, len(scores))
	for i, s := range scores {
		if len(s) == 1 {
			if s[0] > 0 {
				pred[i] = c.Classes[1]
			} else {
				pred[i] = c.Classes[0]
			}
			continue
		}
		pred[i] = c.Classes[floats.MaxIdx(s)]
	}
	return pred, nil
}

// problem is a binary squared-hinge objective over the rows of m with a
// trailing bias feature.
type problem struct {
	m    *Matrix
	y    []float64
	c    float64
	bias float64
	z    []float64
	act  []bool
}

func (p *problem) margin(i int, w []float64) float64 {
	d := p.m.Cols
	return dot(p.m.Rows[i], w[:d]) + w[d]*p.bias
}

// fun evaluates the objective at w and caches margins for grad and hv.
func (p *problem) fun(w []float64) float64 {
	f := 0.5 * floats.Dot(w, w)
	for i := range p.m.Rows {
		p.z[i] = p.y[i] * p.margin(i, w)
		if d := 1 - p.z[i]; d > 0 {
			f += p.c * d * d
		}
	}
	return f
}

func (p *problem) grad(w, g []float64) {
	copy(g, w)
	d := p.m.Cols
	for i, row := range p.m.Rows {
		p.act[i] = p.z[i] < 1
		if !p.act[i] {
			continue
		}
		coef := 2 * p.c * (p.z[i] - 1) * p.y[i]
		addScaled(g[:d], coef, row)
		g[d] += coef * p.bias
	}
}

// hv computes the generalized Hessian times s into out.
func (p *problem) hv(s, out []float64) {
	copy(out, s)
	d := p.m.Cols
	for i, row := range p.m.Rows {
		if !p.act[i] {
			continue
		}
		xs := dot(row, s[:d]) + s[d]*p.bias
		coef := 2 * p.c * xs
		addScaled(out[:d], coef, row)
		out[d] += coef * p.bias
	}
}

// solve minimizes the objective with Newton steps, each direction found by
// conjugate gradients and scaled by an Armijo backtracking line search.
func (c *LinearSVC) solve(m *Matrix, y []float64) ([]float64, int) {
	n := len(m.Rows)
	dim := m.Cols + 1
	p := &problem{m: m, y: y, c: c.C, bias: c.InterceptScaling, z: make([]float64, n), act: make([]bool, n)}

	pos := 0
	for _, v := range y {
		if v > 0 {
			pos++
		}
	}
	neg := n - pos
	eps := c.Tol * math.Max(float64(min(pos, neg)), 1) / float64(n)

	w := make([]float64, dim)
	g := make([]float64, dim)
	step := make([]float64, dim)
	trial := make([]float64, dim)

	f := p.fun(w)
	p.grad(w, g)
	gnorm0 := floats.Norm(g, 2)

	iter := 0
	for ; iter < c.MaxIter; iter++ {
		gnorm := floats.Norm(g, 2)
		if gnorm <= eps*gnorm0 {
			break
		}
		p.conjugateGradient(g, step, 0.1*gnorm)

		slope := floats.Dot(g, step)
		if slope >= 0 {
			break
		}
		alpha := 1.0
		var fNew float64
		accepted := false
		for ls := 0; ls < 30; ls++ {
			floats.AddScaledTo(trial, w, alpha, step)
			fNew = p.fun(trial)
			if fNew <= f+1e-4*alpha*slope {
				accepted = true
				break
			}
			alpha /= 2
		}
		if !accepted {
			p.fun(w)
			break
		}
		copy(w, trial)
		f = fNew
		p.grad(w, g)
		if math.Abs(slope*alpha) <= 1e-12*math.Abs(f) {
			break
		}
	}
	return w, iter
}

// conjugateGradient approximately solves H s = -g until the residual norm
// drops below tol.
func (p *problem) conjugateGradient(g, s []float64, tol float64) {
	dim := len(g)
	r := make([]float64, dim)
	d := make([]float64, dim)
	hd := make([]float64, dim)

	for i := range s {
		s[i] = 0
	}
	floats.ScaleTo(r, -1, g)
	copy(d, r)
	rr := floats.Dot(r, r)
	for k := 0; k < dim && math.Sqrt(rr) > tol; k++ {
		p.hv(d, hd)
		alpha := rr / floats.Dot(d, hd)
		floats.AddScaled(s, alpha, d)
		floats.AddScaled(r, -alpha, hd)
		rrNew := floats.Dot(r, r)
		beta := rrNew / rr
		floats.Scale(beta, d)
		floats.Add(d, r)
		rr = rrNew
	}
}

func uniqueSorted(labels []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}
