package datasource

import (
	"context"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
)

// DefaultCatalystFeeds are the press-release feeds scanned for catalyst
// events.
var DefaultCatalystFeeds = []string{
	"https://www.globenewswire.com/RssFeed/orgclass/1/feedTitle/GlobeNewswire%20-%20News%20about%20Public%20Companies",
	"https://www.prnewswire.com/rss/financial-services-latest-news/financial-services-latest-news-list.rss",
}

// Headline phrases that mark a potential hard catalyst: a corporate event
// likely to force a repricing regardless of screen metrics.
var catalystKeywords = []string{
	"merger",
	"acquisition",
	"acquire",
	"tender offer",
	"buyback",
	"share repurchase",
	"special dividend",
	"spin-off",
	"spinoff",
	"going private",
	"strategic alternatives",
	"activist",
	"takeover",
}

// CatalystDetector flags stocks mentioned in recent catalyst headlines. An
// unreachable feed just means no catalyst flags this refresh; it never
// fails a universe build.
type CatalystDetector struct {
	parser *gofeed.Parser
	feeds  []string

	mu        sync.RWMutex
	headlines []string
}

func NewCatalystDetector(feeds []string) *CatalystDetector {
	if len(feeds) == 0 {
		feeds = DefaultCatalystFeeds
	}
	return &CatalystDetector{
		parser: gofeed.NewParser(),
		feeds:  feeds,
	}
}

// Refresh re-reads every feed and keeps the headlines that mention a
// catalyst phrase. Feed errors do not abort the scan; the last one is
// returned for logging.
func (d *CatalystDetector) Refresh(ctx context.Context) error {
	var kept []string
	var lastErr error
	for _, feedURL := range d.feeds {
		feed, err := d.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			lastErr = err
			continue
		}
		for _, item := range feed.Items {
			text := strings.ToLower(item.Title + " " + item.Description)
			if containsCatalystPhrase(text) {
				kept = append(kept, text)
			}
		}
	}

	d.mu.Lock()
	d.headlines = kept
	d.mu.Unlock()
	return lastErr
}

// HasCatalyst reports whether a recent catalyst headline mentions the
// company. Tickers only match in an exchange-style parenthetical so short
// symbols cannot collide with ordinary words.
func (d *CatalystDetector) HasCatalyst(symbol, name string) bool {
	d.mu.RLock()
	headlines := d.headlines
	d.mu.RUnlock()
	if len(headlines) == 0 {
		return false
	}

	symbol = strings.ToLower(strings.TrimSpace(symbol))
	name = strings.ToLower(strings.TrimSpace(name))
	for _, h := range headlines {
		if symbol != "" && (strings.Contains(h, ": "+symbol+")") || strings.Contains(h, ":"+symbol+")")) {
			return true
		}
		if len(name) > 4 && strings.Contains(h, name) {
			return true
		}
	}
	return false
}

func containsCatalystPhrase(text string) bool {
	for _, kw := range catalystKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
