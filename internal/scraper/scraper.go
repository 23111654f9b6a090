package scraper

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/deusflow/newscorpus/internal/fetch"
	"github.com/deusflow/newscorpus/internal/textclean"
)

// Parser extracts the article body from one publisher's page layout.
// ok is false when the publisher's body container is absent.
type Parser interface {
	Extract(doc *goquery.Document) (body string, ok bool)
}

// BBC articles keep their text in div.story-body.
type BBC struct{}

func (BBC) Extract(doc *goquery.Document) (string, bool) {
	return extractParagraphs(doc.Find("div.story-body"))
}

// Guardian articles keep their text in div#content.
type Guardian struct{}

func (Guardian) Extract(doc *goquery.Document) (string, bool) {
	return extractParagraphs(doc.Find("div#content"))
}

// Telegraph articles keep their text in div.story.
type Telegraph struct{}

func (Telegraph) Extract(doc *goquery.Document) (string, bool) {
	return extractParagraphs(doc.Find("div.story"))
}

// Reuters articles keep their text in div#articleText.
type Reuters struct{}

func (Reuters) Extract(doc *goquery.Document) (string, bool) {
	return extractParagraphs(doc.Find("div#articleText"))
}

// extractParagraphs joins the text of every <p> inside the first matched
// container and cleans it.
func extractParagraphs(containers *goquery.Selection) (string, bool) {
	if containers.Length() == 0 {
		return "", false
	}

	var paragraphs []string
	containers.First().Find("p").Each(func(i int, s *goquery.Selection) {
		paragraphs = append(paragraphs, s.Text())
	})

	return textclean.Clean(strings.Join(paragraphs, " ")), true
}

var parsers = map[string]Parser{
	"bbc":         BBC{},
	"theguardian": Guardian{},
	"telegraph":   Telegraph{},
	"reuters":     Reuters{},
}

// Lookup returns the parser registered for a publisher name.
func Lookup(name string) (Parser, bool) {
	p, ok := parsers[name]
	return p, ok
}

// names lists the registered publisher names in sorted order.
func names() []string {
	out := make([]string, 0, len(parsers))
	for name := range parsers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseDocument decodes a fetched page from its declared charset and
// parses it as HTML.
func ParseDocument(page *fetch.Page) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", page.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}
