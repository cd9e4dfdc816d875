// =============================================================================
// sources.go - news source registry and shared collection logic
// =============================================================================
//
// Individual source implementations live in:
//   - sources_rss.go  - RSS feed sources (gofeed)
//   - sources_html.go - article-page scraping and PDF press releases
//
// Debugging:
//
//	DEBUG_SCRAPING=1  - per-source collection details
//
// =============================================================================
package pipeline

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Package-level compiled regexes (avoid recompiling on every call).
var reScriptTags = regexp.MustCompile(`(?s)<script[^>]*>.*?</script>`)
var reHTMLTags = regexp.MustCompile(`<[^>]*>`)

// StoryCollector is the signature every source collector follows:
// scan the source, return candidate stories. Collectors never classify.
type StoryCollector func(limit int, cfg SourceConfig) ([]Story, error)

// sourceCollectors maps source ids (the -sources flag values) to collectors.
var sourceCollectors = map[string]StoryCollector{
	// sources_rss.go
	"marketwatch": collectStoriesMarketWatch,
	"bloomberg":   collectStoriesBloomberg,
	"cnbc":        collectStoriesCNBC,
	"prnewswire":  collectStoriesPRNewswire,
}

// SourceConfig holds HTTP settings shared by all collectors.
type SourceConfig struct {
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client // shared client with connection pooling
}

// DefaultSourceConfig returns the standard collection settings.
// The browser-style User-Agent avoids blocks on some feed hosts.
func DefaultSourceConfig() SourceConfig {
	timeout := 15 * time.Second
	return SourceConfig{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		Timeout:   timeout,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// CollectResult holds collected stories plus per-source error strings.
// A failed source never aborts the run; partial success is expected.
type CollectResult struct {
	Stories []Story
	Errors  []string
}

// CollectStories runs the collector for each requested source, continuing
// past failures. Unknown source ids are reported as errors, not panics.
func CollectStories(sources []string, perSource int, cfg SourceConfig) *CollectResult {
	result := &CollectResult{}

	for _, src := range sources {
		collector, ok := sourceCollectors[src]
		if !ok {
			errMsg := fmt.Sprintf("[ERROR] unknown source: %s", src)
			fmt.Fprintln(os.Stderr, errMsg)
			result.Errors = append(result.Errors, errMsg)
			continue
		}

		stories, err := collector(perSource, cfg)
		if err != nil {
			errMsg := fmt.Sprintf("[ERROR] collecting %s: %v", src, err)
			fmt.Fprintln(os.Stderr, errMsg)
			result.Errors = append(result.Errors, errMsg)
			continue
		}

		infof("%s: collected %d stories", src, len(stories))
		result.Stories = append(result.Stories, stories...)
	}

	if len(result.Errors) > 0 {
		warnf("%d source(s) failed (collected %d stories from %d sources)",
			len(result.Errors), len(result.Stories), len(sources)-len(result.Errors))
	}

	// Duplicate stories across feeds are intentionally kept: the same deal
	// reported by two sources appears twice.
	return result
}

// FilterStoriesByDays keeps stories published within the last daysBack days.
// Stories with an empty PublishedAt are kept (unknown date is not grounds
// for exclusion); stories with an unparseable date are dropped.
func FilterStoriesByDays(stories []Story, daysBack int) []Story {
	if daysBack <= 0 {
		return stories
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	now := time.Now()
	var filtered []Story

	for _, s := range stories {
		if s.PublishedAt == "" {
			filtered = append(filtered, s)
			continue
		}

		pubTime, err := time.Parse(time.RFC3339, s.PublishedAt)
		if err != nil {
			pubTime, err = time.Parse("2006-01-02T15:04:05", s.PublishedAt)
			if err != nil {
				pubTime, err = time.Parse("2006-01-02", s.PublishedAt)
				if err != nil {
					if os.Getenv("DEBUG_SCRAPING") != "" {
						fmt.Fprintf(os.Stderr, "[DEBUG] FilterStoriesByDays: cannot parse date '%s' for '%s'\n", s.PublishedAt, s.Title)
					}
					continue
				}
			}
		}

		// Keep only cutoff..now; future-dated items are excluded.
		if pubTime.After(cutoff) && !pubTime.After(now) {
			filtered = append(filtered, s)
		}
	}

	if os.Getenv("DEBUG_SCRAPING") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] FilterStoriesByDays: %d -> %d stories (last %d days)\n", len(stories), len(filtered), daysBack)
	}

	return filtered
}

// -----------------------------------------------------------------------------
// feed helpers
// -----------------------------------------------------------------------------

// fetchRSSFeed fetches and parses an RSS/Atom feed using the shared client.
func fetchRSSFeed(feedURL string, cfg SourceConfig) (*gofeed.Feed, error) {
	req, err := http.NewRequest("GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	fp := gofeed.NewParser()
	feed, err := fp.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}

	return feed, nil
}

// extractFeedSummary returns the item's Content if present, else Description,
// with HTML stripped and whitespace trimmed.
func extractFeedSummary(item *gofeed.Item) string {
	raw := item.Content
	if raw == "" {
		raw = item.Description
	}
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(cleanHTMLTags(raw))
}

// feedItemDate formats the item's published (or updated) time as RFC3339,
// or "" when the feed carries no parseable date.
func feedItemDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format(time.RFC3339)
	}
	return ""
}

// cleanHTMLTags removes script blocks and HTML tags, and decodes entities.
func cleanHTMLTags(htmlStr string) string {
	text := reScriptTags.ReplaceAllString(htmlStr, "")
	text = reHTMLTags.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}

// stripTracking removes UTM tracking parameters from an article URL.
func stripTracking(articleURL string) string {
	if idx := strings.Index(articleURL, "?utm_"); idx > 0 {
		return articleURL[:idx]
	}
	return articleURL
}
