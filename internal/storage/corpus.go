package storage

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"
)

// CorpusExt is the file extension of a persisted category corpus.
const CorpusExt = ".json"

// CorpusWriter persists one shuffled JSON array of article bodies per
// category.
type CorpusWriter struct {
	Dir string
	rng *rand.Rand
}

// NewCorpusWriter writes into dir. A zero seed seeds the shuffle from the
// clock.
func NewCorpusWriter(dir string, seed uint64) *CorpusWriter {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &CorpusWriter{
		Dir: dir,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// CorpusPath is where category's corpus lives under dir.
func CorpusPath(dir, category string) string {
	return filepath.Join(dir, category+CorpusExt)
}

// Shuffle returns a uniformly random permutation of bodies. The input is
// not modified.
func (w *CorpusWriter) Shuffle(bodies []string) []string {
	out := make([]string, len(bodies))
	copy(out, bodies)
	w.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Write shuffles bodies and replaces category's corpus file. An empty list
// is written as [].
func (w *CorpusWriter) Write(category string, bodies []string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create corpus dir: %w", err)
	}

	data, err := json.Marshal(w.Shuffle(bodies))
	if err != nil {
		return "", fmt.Errorf("failed to marshal corpus: %w", err)
	}

	path := CorpusPath(w.Dir, category)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write corpus file: %w", err)
	}
	return path, nil
}

// ReadCorpus loads one category corpus file.
func ReadCorpus(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var bodies []string
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal corpus: %w", err)
	}
	return bodies, nil
}
