// =============================================================================
// sources_rss.go - RSS feed sources
// =============================================================================
//
// Sources:
//   1. MarketWatch   - top stories feed
//   2. Bloomberg     - markets news feed
//   3. CNBC          - finance section feed
//   4. PR Newswire   - financial services wire (optional, not in defaults)
//
// Each collector scans at most the first `limit` entries and emits raw
// Stories; keyword filtering and classification happen downstream.
//
// =============================================================================
package pipeline

import (
	"fmt"
	"strings"
)

// collectStoriesFromFeed is the shared RSS collection path: fetch the feed,
// map the first `limit` items to Stories with the summary capped at 300
// characters. sourceName is the display name stamped on every story.
func collectStoriesFromFeed(feedURL, sourceName string, limit int, cfg SourceConfig) ([]Story, error) {
	feed, err := fetchRSSFeed(feedURL, cfg)
	if err != nil {
		return nil, err
	}

	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("no items in %s feed", sourceName)
	}

	out := make([]Story, 0, limit)
	for _, item := range feed.Items {
		if len(out) >= limit {
			break
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		out = append(out, Story{
			Source:      sourceName,
			Title:       title,
			Summary:     truncateRunes(extractFeedSummary(item), 300),
			URL:         stripTracking(item.Link),
			PublishedAt: feedItemDate(item),
		})
	}

	return out, nil
}

// collectStoriesMarketWatch fetches MarketWatch top stories.
//
// URL: https://feeds.marketwatch.com/marketwatch/topstories/
func collectStoriesMarketWatch(limit int, cfg SourceConfig) ([]Story, error) {
	return collectStoriesFromFeed(
		"https://feeds.marketwatch.com/marketwatch/topstories/",
		"Marketwatch", limit, cfg)
}

// collectStoriesBloomberg fetches the Bloomberg markets news feed.
//
// URL: https://feeds.bloomberg.com/markets/news.rss
func collectStoriesBloomberg(limit int, cfg SourceConfig) ([]Story, error) {
	return collectStoriesFromFeed(
		"https://feeds.bloomberg.com/markets/news.rss",
		"Bloomberg", limit, cfg)
}

// collectStoriesCNBC fetches the CNBC finance section feed.
//
// URL: https://www.cnbc.com/id/10000664/device/rss/rss.html
func collectStoriesCNBC(limit int, cfg SourceConfig) ([]Story, error) {
	return collectStoriesFromFeed(
		"https://www.cnbc.com/id/10000664/device/rss/rss.html",
		"Cnbc", limit, cfg)
}

// collectStoriesPRNewswire fetches the PR Newswire financial-services wire.
//
// Wire items often carry a one-line description, so when the feed summary is
// short the article page is scraped for body text (sources_html.go); items
// that link straight to a PDF press release get their text extracted from
// the PDF instead. Scraping failures fall back to the feed description.
//
// URL: https://www.prnewswire.com/rss/financial-services-latest-news/financial-services-latest-news-list.rss
func collectStoriesPRNewswire(limit int, cfg SourceConfig) ([]Story, error) {
	feedURL := "https://www.prnewswire.com/rss/financial-services-latest-news/financial-services-latest-news-list.rss"

	feed, err := fetchRSSFeed(feedURL, cfg)
	if err != nil {
		return nil, err
	}

	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("no items in PR Newswire feed")
	}

	out := make([]Story, 0, limit)
	for _, item := range feed.Items {
		if len(out) >= limit {
			break
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		articleURL := stripTracking(item.Link)
		summary := extractFeedSummary(item)

		// Wire descriptions are frequently a single sentence; the article
		// body usually names the parties and the amount, which the
		// classifier needs.
		if len(summary) < 120 {
			if body := fetchArticleBody(articleURL, cfg); body != "" {
				summary = body
			}
		}

		out = append(out, Story{
			Source:      "PR Newswire",
			Title:       title,
			Summary:     truncateRunes(summary, 300),
			URL:         articleURL,
			PublishedAt: feedItemDate(item),
		})
	}

	return out, nil
}
