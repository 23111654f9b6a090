// Package sources declares which newspaper feeds are polled for each
// category and how a publisher's RSS URL is built.
package sources

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/newscorpus/internal/scraper"
)

// SectionSlot is replaced by the publisher-specific section key.
const SectionSlot = "{section}"

var (
	ErrUnknownPublisher = errors.New("unknown publisher")
	ErrInvalidTemplate  = errors.New("invalid feed template")
)

// Source is one feed to poll for a category.
type Source struct {
	Publisher string `yaml:"publisher"`
	Section   string `yaml:"section"`
}

// Category is a class label and the feeds that supply it.
type Category struct {
	Name    string   `yaml:"name"`
	Sources []Source `yaml:"sources"`
}

// Registry is the read-only category and publisher table.
type Registry struct {
	Publishers map[string]string `yaml:"publishers"` // publisher -> RSS template
	Categories []Category        `yaml:"categories"`
}

// Default returns the built-in table.
func Default() *Registry {
	return &Registry{
		Publishers: map[string]string{
			"bbc":         "http://feeds.bbci.co.uk/news/{section}/rss.xml",
			"theguardian": "http://feeds.guardian.co.uk/theguardian/{section}/rss",
			"telegraph":   "http://www.telegraph.co.uk/{section}/rss",
			"reuters":     "http://mf.feeds.reuters.com/reuters/{section}",
		},
		Categories: []Category{
			{Name: "business", Sources: []Source{
				{"bbc", "business"},
				{"theguardian", "business"},
				{"telegraph", "finance"},
			}},
			{Name: "politics", Sources: []Source{
				{"bbc", "politics"},
				{"telegraph", "politics"},
			}},
			{Name: "health", Sources: []Source{
				{"bbc", "health"},
				{"theguardian", "lifeandstyle"},
				{"reuters", "UKHealthNews"},
			}},
			{Name: "science", Sources: []Source{
				{"bbc", "science_and_environment"},
				{"theguardian", "environment"},
				{"reuters", "UKScienceNews"},
			}},
			{Name: "technology", Sources: []Source{
				{"bbc", "technology"},
				{"theguardian", "technology"},
				{"telegraph", "technology"},
				{"reuters", "technologyNews"},
			}},
			{Name: "entertainment", Sources: []Source{
				{"bbc", "entertainment_and_arts"},
				{"theguardian", "tv-and-radio"},
				{"theguardian", "culture"},
				{"telegraph", "culture"},
			}},
			{Name: "sports", Sources: []Source{
				{"theguardian", "sport"},
				{"telegraph", "sport"},
				{"telegraph", "football"},
				{"reuters", "UKSportsNews"},
			}},
		},
	}
}

// LoadFile reads a registry from YAML and validates it.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reg Registry
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &reg, nil
}

// Validate checks that every referenced publisher has both a parser and a
// well-formed feed template, and that category names are usable as file
// names.
func (r *Registry) Validate() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("no categories defined")
	}

	seen := make(map[string]bool, len(r.Categories))
	for _, c := range r.Categories {
		if c.Name == "" || strings.ContainsAny(c.Name, `/\.`) {
			return fmt.Errorf("invalid category name %q", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true

		for _, s := range c.Sources {
			if _, ok := scraper.Lookup(s.Publisher); !ok {
				return fmt.Errorf("category %q: %w %q (no parser)", c.Name, ErrUnknownPublisher, s.Publisher)
			}
			tmpl, ok := r.Publishers[s.Publisher]
			if !ok {
				return fmt.Errorf("category %q: %w %q (no feed template)", c.Name, ErrUnknownPublisher, s.Publisher)
			}
			if strings.Count(tmpl, SectionSlot) != 1 {
				return fmt.Errorf("publisher %q: %w %q", s.Publisher, ErrInvalidTemplate, tmpl)
			}
		}
	}
	return nil
}

// FeedURL builds the RSS URL for s.
func (r *Registry) FeedURL(s Source) (string, error) {
	tmpl, ok := r.Publishers[s.Publisher]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPublisher, s.Publisher)
	}
	return strings.Replace(tmpl, SectionSlot, s.Section, 1), nil
}

// Parser returns the body extractor for s.
func (r *Registry) Parser(s Source) (scraper.Parser, error) {
	p, ok := scraper.Lookup(s.Publisher)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPublisher, s.Publisher)
	}
	return p, nil
}

// Names returns category names in table order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		names[i] = c.Name
	}
	return names
}
