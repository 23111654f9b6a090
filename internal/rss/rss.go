package rss

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/newscorpus/internal/fetch"
)

// FetchLinks downloads one feed and returns its article links.
func FetchLinks(ctx context.Context, client fetch.HTTPClient, feedURL, userAgent string) ([]string, error) {
	page, err := fetch.Get(ctx, client, feedURL, userAgent)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}
	return ItemLinks(feed), nil
}

// ItemLinks returns one link per item, in feed order. The GUID is
// preferred; items whose GUID is not an http(s) URL fall back to their
// link, and items with neither are dropped.
func ItemLinks(feed *gofeed.Feed) []string {
	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		switch guid := strings.TrimSpace(item.GUID); {
		case isHTTPURL(guid):
			links = append(links, guid)
		case isHTTPURL(strings.TrimSpace(item.Link)):
			links = append(links, strings.TrimSpace(item.Link))
		}
	}
	return links
}

func isHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
