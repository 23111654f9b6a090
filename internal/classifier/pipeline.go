package classifier

import (
	"fmt"
)

// Options configures Train.
type Options struct {
	MaxDF       float64
	MaxFeatures int
	Percentile  float64
	C           float64
	Tol         float64
	MaxIter     int
}

// DefaultOptions returns the settings used for the news category model.
func DefaultOptions() Options {
	return Options{
		MaxDF:       0.5,
		MaxFeatures: 6000,
		Percentile:  20,
		C:           1,
		Tol:         1e-3,
		MaxIter:     1000,
	}
}

// Bundle holds the three fitted stages of the model.
type Bundle struct {
	Clf              *LinearSVC
	Vectorizer       *TfidfVectorizer
	FeatureSelection *SelectPercentile
}

// Train fits vectorizer, selector and classifier on docs and their labels.
// Labels must lie in [0, number of distinct labels).
func Train(docs []string, labels []int, opts Options) (*Bundle, error) {
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("train: %d documents but %d labels", len(docs), len(labels))
	}
	classes := uniqueSorted(labels)
	if len(classes) < 2 {
		return nil, ErrTooFewClasses
	}

	vec := NewTfidfVectorizer()
	vec.MaxDF = opts.MaxDF
	vec.MaxFeatures = opts.MaxFeatures
	x, err := vec.FitTransform(docs)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}

	sel := NewSelectPercentile(opts.Percentile)
	if err := sel.Fit(x, labels, classes[len(classes)-1]+1); err != nil {
		return nil, fmt.Errorf("fit feature selection: %w", err)
	}
	xs, err := sel.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("select features: %w", err)
	}

	clf := NewLinearSVC()
	clf.C = opts.C
	clf.Tol = opts.Tol
	if opts.MaxIter > 0 {
		clf.MaxIter = opts.MaxIter
	}
	if err := clf.Fit(xs, labels); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	return &Bundle{Clf: clf, Vectorizer: vec, FeatureSelection: sel}, nil
}

// Predict runs docs through all three stages.
func (b *Bundle) Predict(docs []string) ([]int, error) {
	if b.Vectorizer == nil || b.FeatureSelection == nil || b.Clf == nil {
		return nil, ErrNotFitted
	}
	xs, err := b.FeatureSelection.Transform(b.Vectorizer.Transform(docs))
	if err != nil {
		return nil, err
	}
	return b.Clf.Predict(xs)
}
