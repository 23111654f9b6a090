// Package harvest pulls every feed configured for a category, fetches the
// linked articles and collects their cleaned bodies. Network and markup
// problems only ever skip the affected feed or article.
package harvest

import (
	"context"
	"errors"

	"github.com/deusflow/newscorpus/internal/dedup"
	"github.com/deusflow/newscorpus/internal/fetch"
	"github.com/deusflow/newscorpus/internal/logger"
	"github.com/deusflow/newscorpus/internal/metrics"
	"github.com/deusflow/newscorpus/internal/rss"
	"github.com/deusflow/newscorpus/internal/scraper"
	"github.com/deusflow/newscorpus/internal/sources"
)

// Limiter paces outgoing requests.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

type noLimit struct{}

func (noLimit) Wait(context.Context, string) error { return nil }

// Harvester fetches feeds and articles one at a time.
type Harvester struct {
	Registry  *sources.Registry
	Client    fetch.HTTPClient
	Limiter   Limiter
	UserAgent string
}

// Result is what one category harvest collected, in insertion order.
type Result struct {
	Category string
	Bodies   []string
	Stats    *metrics.Harvest
}

// New returns a harvester with no request pacing.
func New(reg *sources.Registry, client fetch.HTTPClient, userAgent string) *Harvester {
	return &Harvester{Registry: reg, Client: client, Limiter: noLimit{}, UserAgent: userAgent}
}

// Category harvests every source of cat in order. Failed feeds and
// articles are skipped; an error is returned only when ctx is cancelled or
// a source names a publisher the registry does not know.
func (h *Harvester) Category(ctx context.Context, cat sources.Category) (*Result, error) {
	res := &Result{
		Category: cat.Name,
		Bodies:   []string{},
		Stats:    metrics.NewHarvest(cat.Name),
	}
	seen := dedup.New()

	for _, src := range cat.Sources {
		if err := h.source(ctx, src, res, seen); err != nil {
			return nil, err
		}
	}

	res.Stats.Finish()
	return res, nil
}

// source harvests one feed into res.
func (h *Harvester) source(ctx context.Context, src sources.Source, res *Result, seen *dedup.Set) error {
	feedURL, err := h.Registry.FeedURL(src)
	if err != nil {
		return err
	}
	parser, err := h.Registry.Parser(src)
	if err != nil {
		return err
	}

	logger.Info("Fetching feed", "category", res.Category, "publisher", src.Publisher, "url", feedURL)

	if err := h.limiter().Wait(ctx, feedURL); err != nil {
		return err
	}
	links, err := rss.FetchLinks(ctx, h.Client, feedURL, h.UserAgent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Info("Skipping feed", "url", feedURL, "reason", err)
		res.Stats.IncrementFeedsSkipped()
		return nil
	}
	res.Stats.IncrementFeedsFetched()

	for _, link := range links {
		if !seen.Add(dedup.LinkKey(link)) {
			res.Stats.IncrementDuplicateLinks()
			continue
		}

		body, err := h.article(ctx, link, parser, res.Stats)
		if err != nil {
			return err
		}
		if body == "" {
			continue
		}
		if !seen.Add(dedup.BodyKey(body)) {
			res.Stats.IncrementDuplicateBodies()
			continue
		}

		res.Bodies = append(res.Bodies, body)
		res.Stats.IncrementArticlesKept()
	}
	return nil
}

// article fetches and parses one page. An empty body with a nil error means
// the article was skipped; a non-nil error is always a context error.
func (h *Harvester) article(ctx context.Context, link string, parser scraper.Parser, stats *metrics.Harvest) (string, error) {
	logger.Info("Fetching article", "url", link)

	if err := h.limiter().Wait(ctx, link); err != nil {
		return "", err
	}
	page, err := fetch.Get(ctx, h.Client, link, h.UserAgent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var se *fetch.StatusError
		if errors.As(err, &se) {
			logger.Debug("Skipping article", "url", link, "status", se.Code)
		} else {
			logger.Debug("Skipping article", "url", link, "reason", err)
		}
		stats.IncrementArticlesSkipped()
		return "", nil
	}
	stats.IncrementArticlesFetched()

	doc, err := scraper.ParseDocument(page)
	if err != nil {
		logger.Debug("Can't parse article", "url", link, "reason", err)
		stats.IncrementParseFailures()
		return "", nil
	}

	body, ok := parser.Extract(doc)
	if !ok {
		logger.Debug("No article body found", "url", link)
		stats.IncrementNoBody()
		return "", nil
	}
	if body == "" {
		stats.IncrementEmptyBodies()
		return "", nil
	}
	return body, nil
}

func (h *Harvester) limiter() Limiter {
	if h.Limiter == nil {
		return noLimit{}
	}
	return h.Limiter
}
