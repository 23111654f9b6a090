package classifier

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyVocabulary is returned when the documents contain no usable terms.
	ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no tokens")
	// ErrNoTermsRemain is returned when document-frequency pruning removes every term.
	ErrNoTermsRemain = errors.New("no terms remain after pruning; raise MaxDF")
)

// TfidfVectorizer turns raw documents into L2-normalized TF-IDF rows.
type TfidfVectorizer struct {
	SublinearTF  bool
	MaxDF        float64
	MaxFeatures  int
	StripAccents bool
	StopWords    map[string]bool // nil keeps every token

	// Fitted state.
	Vocabulary map[string]int
	IDF        []float64
}

// NewTfidfVectorizer returns the vectorizer used for news categories.
func NewTfidfVectorizer() *TfidfVectorizer {
	return &TfidfVectorizer{
		SublinearTF:  true,
		MaxDF:        0.5,
		MaxFeatures:  6000,
		StripAccents: true,
		StopWords:    EnglishStopWords(),
	}
}

// Terms returns the vocabulary ordered by feature index.
func (v *TfidfVectorizer) Terms() []string {
	terms := make([]string, len(v.Vocabulary))
	for t, i := range v.Vocabulary {
		terms[i] = t
	}
	return terms
}

func (v *TfidfVectorizer) preprocess(doc string) string {
	doc = strings.ToLower(doc)
	if !v.StripAccents {
		return doc
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, doc)
	if err != nil {
		return doc
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// analyze returns the tokens of doc of at least two word runes, minus stop words.
func (v *TfidfVectorizer) analyze(doc string) []string {
	doc = v.preprocess(doc)
	var tokens []string
	start, n := -1, 0
	flush := func(end int) {
		if start >= 0 && n >= 2 {
			tok := doc[start:end]
			if !v.StopWords[tok] {
				tokens = append(tokens, tok)
			}
		}
		start, n = -1, 0
	}
	for i, r := range doc {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			n++
			continue
		}
		flush(i)
	}
	flush(len(doc))
	return tokens
}

func countTerms(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// FitTransform fits the vectorizer and returns the TF-IDF matrix of docs.
func (v *TfidfVectorizer) FitTransform(docs []string) (*Matrix, error) {
	perDoc := make([]map[string]int, len(docs))
	df := make(map[string]int)
	total := make(map[string]int)
	for i, doc := range docs {
		counts := countTerms(v.analyze(doc))
		perDoc[i] = counts
		for t, c := range counts {
			df[t]++
			total[t] += c
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	maxDocs := float64(len(docs))
	if v.MaxDF > 0 && v.MaxDF <= 1 {
		maxDocs = v.MaxDF * float64(len(docs))
	}
	kept := make([]string, 0, len(df))
	for t, d := range df {
		if float64(d) <= maxDocs {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoTermsRemain
	}

	sort.Strings(kept)
	if v.MaxFeatures > 0 && len(kept) > v.MaxFeatures {
		sort.SliceStable(kept, func(i, j int) bool { return total[kept[i]] > total[kept[j]] })
		kept = kept[:v.MaxFeatures]
		sort.Strings(kept)
	}

	v.Vocabulary = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	n := float64(len(docs))
	for i, t := range kept {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	m := &Matrix{Rows: make([]Vector, len(docs)), Cols: len(kept)}
	for i, counts := range perDoc {
		m.Rows[i] = v.weigh(counts)
	}
	return m, nil
}

// Transform maps docs onto the fitted vocabulary. Unknown terms are ignored.
func (v *TfidfVectorizer) Transform(docs []string) *Matrix {
	m := &Matrix{Rows: make([]Vector, len(docs)), Cols: len(v.IDF)}
	for i, doc := range docs {
		m.Rows[i] = v.weigh(countTerms(v.analyze(doc)))
	}
	return m
}

func (v *TfidfVectorizer) weigh(counts map[string]int) Vector {
	var row Vector
	for t, c := range counts {
		if j, ok := v.Vocabulary[t]; ok {
			row.Indices = append(row.Indices, j)
			tf := float64(c)
			if v.SublinearTF {
				tf = 1 + math.Log(tf)
			}
			row.Values = append(row.Values, tf*v.IDF[j])
		}
	}
	sortVector(&row)

	var sq float64
	for _, x := range row.Values {
		sq += x * x
	}
	if sq > 0 {
		l2 := math.Sqrt(sq)
		for k := range row.Values {
			row.Values[k] /= l2
		}
	}
	return row
}

type vectorSorter struct{ v *Vector }

func (s vectorSorter) Len() int           { return len(s.v.Indices) }
func (s vectorSorter) Less(i, j int) bool { return s.v.Indices[i] < s.v.Indices[j] }
func (s vectorSorter) Swap(i, j int) {
	s.v.Indices[i], s.v.Indices[j] = s.v.Indices[j], s.v.Indices[i]
	s.v.Values[i], s.v.Values[j] = s.v.Values[j], s.v.Values[i]
}

func sortVector(v *Vector) { sort.Sort(vectorSorter{v}) }
