package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/newscorpus/internal/fetch"
	"github.com/deusflow/newscorpus/internal/logger"
	"github.com/deusflow/newscorpus/internal/sources"
)

func init() {
	logger.InitWriter(io.Discard, false)
}

// flakyClient fails every request whose URL is listed in fail.
type flakyClient struct {
	inner fetch.HTTPClient
	fail  map[string]bool
}

func (c *flakyClient) Do(req *http.Request) (*http.Response, error) {
	if c.fail[req.URL.String()] {
		return nil, errors.New("connection reset by peer")
	}
	return c.inner.Do(req)
}

func feedXML(links ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for i, l := range links {
		fmt.Fprintf(&b, "<item><title>%d</title><guid>%s</guid></item>", i, l)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func articleHTML(paragraphs ...string) string {
	return `<html><body><div class="story-body"><p>` + strings.Join(paragraphs, "</p><p>") + `</p></div></body></html>`
}

// newsServer serves feeds under /feeds/<section>/rss and pages under /a/.
// Pages are looked up by path and query first, then by path alone.
func newsServer(t *testing.T, feeds map[string]func(base string) string, pages map[string]string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/feeds/") {
			section := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/feeds/"), "/rss")
			build, ok := feeds[section]
			if !ok {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprint(w, build(srv.URL))
			return
		}
		page, ok := pages[r.URL.RequestURI()]
		if !ok {
			page, ok = pages[r.URL.Path]
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func registryFor(srv *httptest.Server) *sources.Registry {
	return &sources.Registry{
		Publishers: map[string]string{"bbc": srv.URL + "/feeds/{section}/rss"},
	}
}

func TestCategorySkipsFailedFeedsAndArticles(t *testing.T) {
	srv := newsServer(t,
		map[string]func(string) string{
			"good": func(base string) string { return feedXML(base+"/a/ok", base+"/a/broken") },
		},
		map[string]string{
			"/a/ok":     articleHTML("Markets rallied.", "Shares rose!"),
			"/a/broken": articleHTML("never fetched"),
		},
	)

	client := &flakyClient{
		inner: fetch.NewClient(5 * time.Second),
		fail:  map[string]bool{srv.URL + "/a/broken": true},
	}
	h := New(registryFor(srv), client, "test")

	cat := sources.Category{Name: "business", Sources: []sources.Source{
		{Publisher: "bbc", Section: "down"}, // 503
		{Publisher: "bbc", Section: "good"},
	}}

	res, err := h.Category(context.Background(), cat)
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if len(res.Bodies) != 1 || res.Bodies[0] != "Markets rallied Shares rose" {
		t.Fatalf("Bodies = %q", res.Bodies)
	}
	if res.Stats.FeedsSkipped != 1 || res.Stats.FeedsFetched != 1 {
		t.Errorf("feeds fetched/skipped = %d/%d", res.Stats.FeedsFetched, res.Stats.FeedsSkipped)
	}
	if res.Stats.ArticlesSkipped != 1 || res.Stats.ArticlesKept != 1 {
		t.Errorf("articles skipped/kept = %d/%d", res.Stats.ArticlesSkipped, res.Stats.ArticlesKept)
	}
}

func TestCategorySkipsMissingBodiesAndNotFound(t *testing.T) {
	srv := newsServer(t,
		map[string]func(string) string{
			"mixed": func(base string) string {
				return feedXML(base+"/a/nobody", base+"/a/missing", base+"/a/empty", base+"/a/good")
			},
		},
		map[string]string{
			"/a/nobody": `<html><body><div class="other"><p>text</p></div></body></html>`,
			"/a/empty":  `<html><body><div class="story-body"><p>!!!</p></div></body></html>`,
			"/a/good":   articleHTML("A.", "B."),
		},
	)

	h := New(registryFor(srv), fetch.NewClient(5*time.Second), "")
	res, err := h.Category(context.Background(), sources.Category{
		Name:    "science",
		Sources: []sources.Source{{Publisher: "bbc", Section: "mixed"}},
	})
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if len(res.Bodies) != 1 || res.Bodies[0] != "A B" {
		t.Fatalf("Bodies = %q", res.Bodies)
	}
	if res.Stats.NoBody != 1 || res.Stats.EmptyBodies != 1 || res.Stats.ArticlesSkipped != 1 {
		t.Errorf("stats = %v", res.Stats.Attrs())
	}
}

func TestCategoryDeduplicates(t *testing.T) {
	srv := newsServer(t,
		map[string]func(string) string{
			"one": func(base string) string { return feedXML(base+"/a/1", base+"/a/1?utm_source=rss", base+"/a/2") },
			"two": func(base string) string { return feedXML(base+"/a/1", base+"/a/3") },
		},
		map[string]string{
			"/a/1": articleHTML("first story"),
			"/a/2": articleHTML("second story"),
			"/a/3": articleHTML("first story"), // syndicated copy
		},
	)

	h := New(registryFor(srv), fetch.NewClient(5*time.Second), "")
	res, err := h.Category(context.Background(), sources.Category{
		Name: "technology",
		Sources: []sources.Source{
			{Publisher: "bbc", Section: "one"},
			{Publisher: "bbc", Section: "two"},
		},
	})
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	want := []string{"first story", "second story"}
	if strings.Join(res.Bodies, "|") != strings.Join(want, "|") {
		t.Errorf("Bodies = %q, want %q", res.Bodies, want)
	}
	if res.Stats.DuplicateLinks != 2 || res.Stats.DuplicateBodies != 1 {
		t.Errorf("duplicate links/bodies = %d/%d", res.Stats.DuplicateLinks, res.Stats.DuplicateBodies)
	}
}

func TestCategoryKeepsLinksWithSemicolonQueries(t *testing.T) {
	srv := newsServer(t,
		map[string]func(string) string{
			"legacy": func(base string) string {
				return feedXML(base+"/a/story?id=1;ref=rss", base+"/a/story?id=2;ref=rss")
			},
		},
		map[string]string{
			"/a/story?id=1;ref=rss": articleHTML("budget vote delayed"),
			"/a/story?id=2;ref=rss": articleHTML("rates held steady"),
		},
	)

	h := New(registryFor(srv), fetch.NewClient(5*time.Second), "")
	res, err := h.Category(context.Background(), sources.Category{
		Name:    "business",
		Sources: []sources.Source{{Publisher: "bbc", Section: "legacy"}},
	})
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if res.Stats.DuplicateLinks != 0 || res.Stats.ArticlesFetched != 2 {
		t.Errorf("duplicate links = %d, articles fetched = %d, want 0 and 2",
			res.Stats.DuplicateLinks, res.Stats.ArticlesFetched)
	}
	want := []string{"budget vote delayed", "rates held steady"}
	if strings.Join(res.Bodies, "|") != strings.Join(want, "|") {
		t.Errorf("Bodies = %q, want %q", res.Bodies, want)
	}
}

func TestCategoryNoSources(t *testing.T) {
	h := New(&sources.Registry{}, fetch.NewClient(time.Second), "")
	res, err := h.Category(context.Background(), sources.Category{Name: "empty"})
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if res.Bodies == nil || len(res.Bodies) != 0 {
		t.Errorf("expected empty, non-nil bodies, got %#v", res.Bodies)
	}
}

func TestCategoryCancelled(t *testing.T) {
	srv := newsServer(t,
		map[string]func(string) string{
			"good": func(base string) string { return feedXML(base + "/a/1") },
		},
		map[string]string{"/a/1": articleHTML("x")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(registryFor(srv), fetch.NewClient(time.Second), "")
	_, err := h.Category(ctx, sources.Category{
		Name:    "business",
		Sources: []sources.Source{{Publisher: "bbc", Section: "good"}},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
