package metrics

import (
	"sync"
	"testing"
)

func TestHarvestCountersConcurrent(t *testing.T) {
	m := NewHarvest("sports")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementArticlesFetched()
			m.IncrementArticlesKept()
		}()
	}
	wg.Wait()
	m.IncrementFeedsSkipped()
	m.Finish()

	stats := statsOf(m)
	if stats["category"] != "sports" {
		t.Errorf("category = %v", stats["category"])
	}
	if stats["articles_fetched"] != int64(50) || stats["articles_kept"] != int64(50) {
		t.Errorf("fetched = %v, kept = %v", stats["articles_fetched"], stats["articles_kept"])
	}
	if stats["feeds_skipped"] != int64(1) || stats["feeds_fetched"] != int64(0) {
		t.Errorf("feeds skipped = %v, fetched = %v", stats["feeds_skipped"], stats["feeds_fetched"])
	}
	if m.ProcessingTime < 0 {
		t.Errorf("ProcessingTime = %v", m.ProcessingTime)
	}
}

func statsOf(m *Harvest) map[string]any {
	attrs := m.Attrs()
	stats := make(map[string]any, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		stats[attrs[i].(string)] = attrs[i+1]
	}
	return stats
}

func TestAttrsArePairs(t *testing.T) {
	attrs := NewHarvest("health").Attrs()
	if len(attrs)%2 != 0 {
		t.Fatalf("odd attribute count %d", len(attrs))
	}
	for i := 0; i < len(attrs); i += 2 {
		if _, ok := attrs[i].(string); !ok {
			t.Errorf("key %d is %T, want string", i, attrs[i])
		}
	}
}
