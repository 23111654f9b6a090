// Package dedup remembers which article links and bodies a category has
// already collected during one harvest run.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Set is not safe for concurrent use; each category harvest owns one.
type Set struct {
	items map[string]struct{}
}

func New() *Set {
	return &Set{items: make(map[string]struct{})}
}

// Add records key and reports whether it was new.
func (s *Set) Add(key string) bool {
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = struct{}{}
	return true
}

// LinkKey identifies an article URL, ignoring scheme, a leading "www.",
// the fragment, and utm_* tracking parameters.
func LinkKey(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "link:" + link
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	key := host + u.EscapedPath()
	if query := canonicalQuery(u.RawQuery); query != "" {
		key += "?" + query
	}
	return "link:" + key
}

// canonicalQuery sorts the query and drops utm_* pairs. A query that does
// not parse cleanly (";" separators, bad escapes) is kept verbatim apart
// from the utm_* pairs, since re-encoding it would lose pairs.
func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}

	q, err := url.ParseQuery(raw)
	if err != nil {
		var kept []string
		for _, pair := range strings.Split(raw, "&") {
			if pair != "" && !isTracking(pair) {
				kept = append(kept, pair)
			}
		}
		return strings.Join(kept, "&")
	}

	for k := range q {
		if isTracking(k) {
			q.Del(k)
		}
	}
	return q.Encode()
}

func isTracking(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), "utm_")
}

// BodyKey identifies a cleaned article body.
func BodyKey(body string) string {
	h := sha256.New()
	h.Write([]byte(body))
	return "body:" + hex.EncodeToString(h.Sum(nil))
}
