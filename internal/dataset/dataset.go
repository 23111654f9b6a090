// Package dataset turns the persisted per-category corpora into one
// class-balanced, labeled training set.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deusflow/newscorpus/internal/storage"
)

// LoadError means a corpus file could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load corpus %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmptyDatasetError means no balanced dataset can be built: either no
// corpus files exist or Category has no articles.
type EmptyDatasetError struct {
	Dir      string
	Category string
}

func (e *EmptyDatasetError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("empty dataset: no corpus files in %s", e.Dir)
	}
	return fmt.Sprintf("empty dataset: category %q has no articles", e.Category)
}

// Sample is one article body and the index of its category.
type Sample struct {
	Body  string
	Label int
}

// Dataset is balanced: every category contributes PerCategory samples.
type Dataset struct {
	Categories  []string
	PerCategory int
	Samples     []Sample
}

// Bodies returns the sample bodies in order.
func (d *Dataset) Bodies() []string {
	out := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Body
	}
	return out
}

// Labels returns the sample labels, aligned with Bodies.
func (d *Dataset) Labels() []int {
	out := make([]int, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Label
	}
	return out
}

// Load reads every <category>.json in dir (lexical order) and keeps the
// first N bodies of each, N being the size of the smallest category.
func Load(dir string) (*Dataset, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+storage.CorpusExt))
	if err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	}
	if len(paths) == 0 {
		return nil, &EmptyDatasetError{Dir: dir}
	}

	categories := make([]string, 0, len(paths))
	corpora := make([][]string, 0, len(paths))
	for _, path := range paths {
		bodies, err := storage.ReadCorpus(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		categories = append(categories, strings.TrimSuffix(filepath.Base(path), storage.CorpusExt))
		corpora = append(corpora, bodies)
	}

	return Balance(categories, corpora)
}

// Balance truncates every corpus to the length of the shortest one.
// categories[i] labels corpora[i].
func Balance(categories []string, corpora [][]string) (*Dataset, error) {
	if len(categories) != len(corpora) {
		return nil, fmt.Errorf("balance: %d categories for %d corpora", len(categories), len(corpora))
	}
	if len(categories) == 0 {
		return nil, &EmptyDatasetError{}
	}

	n := len(corpora[0])
	for i, c := range corpora {
		if len(c) == 0 {
			return nil, &EmptyDatasetError{Category: categories[i]}
		}
		n = min(n, len(c))
	}

	ds := &Dataset{
		Categories:  append([]string(nil), categories...),
		PerCategory: n,
		Samples:     make([]Sample, 0, n*len(categories)),
	}
	for label, c := range corpora {
		for _, body := range c[:n] {
			ds.Samples = append(ds.Samples, Sample{Body: body, Label: label})
		}
	}
	return ds, nil
}
