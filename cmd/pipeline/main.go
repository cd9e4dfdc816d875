// =============================================================================
// main.go - deal-relay pipeline entry point
// =============================================================================
//
// CLI for the weekly deal newsletter pipeline:
//
//	1. Collect stories from financial RSS feeds (or read from a file)
//	2. Filter by recency, classify and score deal candidates
//	3. Summarize the top deals via OpenAI
//	4. Assemble and render the newsletter
//	5. Output JSON to stdout or a file, optionally archive to Notion,
//	   optionally send to subscribers via Resend
//
// Modes:
//
//	./pipeline                          build newsletter, JSON to stdout
//	./pipeline -out issue.json          build newsletter, JSON to file
//	./pipeline -send                    build and deliver to subscribers
//	./pipeline -send -syncAudience      sync Resend audience, then deliver
//	./pipeline -syncOnly                audience sync only, no newsletter
//	./pipeline -notionClip              archive the issue's deals to Notion
//
// Progress and errors go to stderr; stdout carries JSON only.
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"deal-relay/internal/pipeline"
)

func main() {
	// Missing .env is fine; environment variables may be set directly.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: .env file not loaded: %v (using environment variables only)\n", err)
	}

	cfg := pipeline.ParseFlags()

	// --- Early exit for sync-only mode ---
	if cfg.Delivery.SyncOnly {
		runAudienceSync()
		return
	}

	// --- 1) Collect or read stories ---
	var stories []pipeline.Story
	if cfg.Input.StoriesFile != "" {
		if err := pipeline.ReadJSONFile(cfg.Input.StoriesFile, &stories); err != nil {
			pipeline.Fatalf("reading stories: %v", err)
		}
	} else {
		srcCfg := pipeline.DefaultSourceConfig()
		result := pipeline.CollectStories(cfg.Input.Sources(), cfg.Input.PerFeed, srcCfg)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "WARN: %s\n", e)
		}
		stories = result.Stories
	}

	if cfg.Input.DaysBack > 0 {
		stories = pipeline.FilterStoriesByDays(stories, cfg.Input.DaysBack)
	}

	// --- 2) Classify and score ---
	deals := pipeline.SelectTopDeals(stories, cfg.Input.MaxStories)

	// --- 3) Summarize ---
	var summarized []pipeline.SummarizedDeal
	if cfg.Summarize.Disabled {
		summarized = pipeline.FallbackSummaries(deals)
	} else {
		summarizer, err := pipeline.NewSummarizer("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARN: %v, using fallback summaries\n", err)
			summarized = pipeline.FallbackSummaries(deals)
		} else {
			summarized = summarizer.SummarizeDeals(deals)
		}
	}

	// --- 4) Assemble and render ---
	content := pipeline.BuildNewsletterContent(summarized)
	formatter := pipeline.NewFormatter()

	// --- 5) Output ---
	if cfg.Output.OutFile != "" {
		if err := pipeline.WriteJSONFile(cfg.Output.OutFile, content); err != nil {
			pipeline.Fatalf("writing output: %v", err)
		}
	} else {
		pipeline.WriteJSONToStdout(content)
	}

	if cfg.Output.HTMLOut != "" {
		html := formatter.FormatHTML(content, "")
		if err := os.WriteFile(cfg.Output.HTMLOut, []byte(html), 0o644); err != nil {
			pipeline.Fatalf("writing HTML output: %v", err)
		}
	}

	// --- 6) Archive to Notion (if enabled) ---
	if cfg.Output.NotionClip {
		archiveToNotion(cfg, summarized)
	}

	// --- 7) Deliver (if enabled) ---
	if cfg.Delivery.Send {
		deliver(cfg, content, formatter)
	}
}

// runAudienceSync reconciles the Resend audience with Supabase and prints
// the results as JSON.
func runAudienceSync() {
	store, err := pipeline.NewSubscriberStoreFromEnv()
	if err != nil {
		pipeline.Fatalf("creating subscriber store: %v", err)
	}
	resend, err := pipeline.NewResendClientFromEnv()
	if err != nil {
		pipeline.Fatalf("creating resend client: %v", err)
	}

	results, err := pipeline.AudienceSync(store, resend)
	if err != nil {
		pipeline.Fatalf("audience sync: %v", err)
	}
	pipeline.WriteJSONToStdout(results)
}

// archiveToNotion writes the issue's deals to the Notion archive database.
func archiveToNotion(cfg *pipeline.PipelineConfig, deals []pipeline.SummarizedDeal) {
	notionToken := os.Getenv("NOTION_TOKEN")
	if notionToken == "" {
		pipeline.Fatalf("NOTION_TOKEN environment variable is required for Notion integration")
	}

	databaseID := cfg.Output.NotionDatabaseID
	if databaseID == "" {
		databaseID = os.Getenv("NOTION_DATABASE_ID")
	}

	archiver, err := pipeline.NewDealArchiver(notionToken, databaseID)
	if err != nil {
		pipeline.Fatalf("creating deal archiver: %v", err)
	}

	ctx := context.Background()

	if databaseID == "" {
		pageID := cfg.Output.NotionPageID
		if pageID == "" {
			pageID = os.Getenv("NOTION_PAGE_ID")
		}
		if pageID == "" {
			pipeline.Fatalf("-notionPageID is required when creating a new Notion database")
		}
		if err := archiver.CreateDatabase(ctx, pageID); err != nil {
			pipeline.Fatalf("creating Notion database: %v", err)
		}
	}

	if err := archiver.ArchiveDeals(ctx, deals); err != nil {
		pipeline.Fatalf("archiving deals: %v", err)
	}
}

// deliver sends the rendered newsletter to all active subscribers.
func deliver(cfg *pipeline.PipelineConfig, content pipeline.NewsletterContent, formatter *pipeline.Formatter) {
	store, err := pipeline.NewSubscriberStoreFromEnv()
	if err != nil {
		pipeline.Fatalf("creating subscriber store: %v", err)
	}
	resend, err := pipeline.NewResendClientFromEnv()
	if err != nil {
		pipeline.Fatalf("creating resend client: %v", err)
	}

	// Optional pre-send audience sync, via flag or ENABLE_RESEND_SYNC.
	if cfg.Delivery.SyncAudience || os.Getenv("ENABLE_RESEND_SYNC") == "true" {
		if _, err := pipeline.AudienceSync(store, resend); err != nil {
			fmt.Fprintf(os.Stderr, "WARN: audience sync failed, continuing with send: %v\n", err)
		}
	}

	recipients, err := store.ActiveSubscribers()
	if err != nil {
		pipeline.Fatalf("fetching subscribers: %v", err)
	}
	if len(recipients) == 0 {
		fmt.Fprintln(os.Stderr, "No active subscribers, nothing to send")
		return
	}

	dealCount := 0
	for _, deals := range content.DealSections {
		dealCount += len(deals)
	}
	subject := fmt.Sprintf("📊 %d Key Financial Deals This Week - %s", dealCount, content.Headline)

	htmlBody := formatter.FormatHTML(content, "")
	textBody := formatter.FormatText(content)

	results := resend.SendNewsletter(recipients, subject, htmlBody, textBody)

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	fmt.Fprintf(os.Stderr, "Delivered %d/%d newsletters\n", sent, len(results))

	if sent < len(results) {
		// Best-effort operator alert; skipped when NOTIFY_* is not configured.
		if notifier, err := pipeline.NewNotifierFromEnv(); err == nil {
			if err := notifier.NotifySendReport(content.Headline, results); err != nil {
				fmt.Fprintf(os.Stderr, "WARN: send report notification failed: %v\n", err)
			}
		}
	}
}
