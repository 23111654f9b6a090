package metrics

import (
	"sync"
	"time"
)

// Harvest counts what happened while harvesting one category.
type Harvest struct {
	mu sync.RWMutex

	Category string

	FeedsFetched    int64
	FeedsSkipped    int64
	ArticlesFetched int64
	ArticlesSkipped int64 // transport failure or non-2xx
	ParseFailures   int64 // page could not be parsed as HTML
	NoBody          int64 // parser did not find its container
	EmptyBodies     int64
	DuplicateLinks  int64
	DuplicateBodies int64
	ArticlesKept    int64
	ProcessingTime  time.Duration
	startedAt       time.Time
}

func NewHarvest(category string) *Harvest {
	return &Harvest{Category: category, startedAt: time.Now()}
}

func (m *Harvest) inc(field *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field++
}

func (m *Harvest) IncrementFeedsFetched()    { m.inc(&m.FeedsFetched) }
func (m *Harvest) IncrementFeedsSkipped()    { m.inc(&m.FeedsSkipped) }
func (m *Harvest) IncrementArticlesFetched() { m.inc(&m.ArticlesFetched) }
func (m *Harvest) IncrementArticlesSkipped() { m.inc(&m.ArticlesSkipped) }
func (m *Harvest) IncrementParseFailures()   { m.inc(&m.ParseFailures) }
func (m *Harvest) IncrementNoBody()          { m.inc(&m.NoBody) }
func (m *Harvest) IncrementEmptyBodies()     { m.inc(&m.EmptyBodies) }
func (m *Harvest) IncrementDuplicateLinks()  { m.inc(&m.DuplicateLinks) }
func (m *Harvest) IncrementDuplicateBodies() { m.inc(&m.DuplicateBodies) }
func (m *Harvest) IncrementArticlesKept()    { m.inc(&m.ArticlesKept) }

// Finish records the elapsed time since the harvest started.
func (m *Harvest) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessingTime = time.Since(m.startedAt)
}

// Attrs flattens the counters into slog-style key/value pairs.
func (m *Harvest) Attrs() []any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return []any{
		"category", m.Category,
		"feeds_fetched", m.FeedsFetched,
		"feeds_skipped", m.FeedsSkipped,
		"articles_fetched", m.ArticlesFetched,
		"articles_skipped", m.ArticlesSkipped,
		"parse_failures", m.ParseFailures,
		"no_body", m.NoBody,
		"empty_bodies", m.EmptyBodies,
		"duplicate_links", m.DuplicateLinks,
		"duplicate_bodies", m.DuplicateBodies,
		"articles_kept", m.ArticlesKept,
		"processing_time_ms", m.ProcessingTime.Milliseconds(),
	}
}
