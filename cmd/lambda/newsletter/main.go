// =============================================================================
// Lambda: newsletter
// =============================================================================
//
// Builds the weekly deal newsletter and delivers it to all active
// subscribers. Intended to run on a weekly EventBridge schedule.
//
// Environment:
//   - OPENAI_API_KEY:            OpenAI API key (optional; fallback summaries without it)
//   - SUPABASE_URL:              Supabase project URL (required)
//   - SUPABASE_SERVICE_ROLE_KEY: Supabase service role key (required)
//   - RESEND_API_KEY:            Resend API key (required)
//   - SENDER_EMAIL:              verified sender address (required)
//   - SOURCES:                   sources to collect (default: all defaults)
//   - PER_FEED:                  stories per source (default: 20)
//   - MAX_STORIES:               deals in the newsletter (default: 8)
//   - DAYS_BACK:                 recency window in days (default: 7, 0 disables)
//   - ENABLE_RESEND_SYNC:        "true" to sync the audience before sending
//   - NOTIFY_FROM/PASSWORD/TO:   operator alert email (optional)
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"deal-relay/internal/pipeline"
)

// LambdaConfig is read from environment variables.
type LambdaConfig struct {
	Sources    string
	PerFeed    int
	MaxStories int
	DaysBack   int
	SyncFirst  bool
}

// Response is the Lambda response payload.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Deals      int    `json:"deals"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
}

// Handler builds and delivers one newsletter issue.
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting newsletter Lambda...")

	cfg := loadConfig()

	store, err := pipeline.NewSubscriberStoreFromEnv()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}
	resend, err := pipeline.NewResendClientFromEnv()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	log.Printf("Config: sources=%s, perFeed=%d, maxStories=%d, daysBack=%d",
		cfg.Sources, cfg.PerFeed, cfg.MaxStories, cfg.DaysBack)

	// 1. Collect stories
	sources := parseSources(cfg.Sources)
	srcCfg := pipeline.DefaultSourceConfig()
	result := pipeline.CollectStories(sources, cfg.PerFeed, srcCfg)
	if len(result.Errors) > 0 {
		log.Printf("WARNING: %d source(s) failed:", len(result.Errors))
		for _, e := range result.Errors {
			log.Printf("  %s", e)
		}
		notifyCollectionErrors(result.Errors, len(result.Stories))
	}

	stories := result.Stories
	log.Printf("Collected %d stories (before time filter)", len(stories))

	if cfg.DaysBack > 0 {
		stories = pipeline.FilterStoriesByDays(stories, cfg.DaysBack)
		log.Printf("After time filter: %d stories (last %d days)", len(stories), cfg.DaysBack)
	}

	// 2. Classify and score
	deals := pipeline.SelectTopDeals(stories, cfg.MaxStories)

	// 3. Summarize
	var summarized []pipeline.SummarizedDeal
	if summarizer, err := pipeline.NewSummarizer(""); err != nil {
		log.Printf("Summarizer unavailable (%v), using fallback summaries", err)
		summarized = pipeline.FallbackSummaries(deals)
	} else {
		summarized = summarizer.SummarizeDeals(deals)
	}

	// 4. Assemble and render
	content := pipeline.BuildNewsletterContent(summarized)
	formatter := pipeline.NewFormatter()

	// 5. Optional pre-send audience sync
	if cfg.SyncFirst {
		if _, err := pipeline.AudienceSync(store, resend); err != nil {
			log.Printf("Warning: audience sync failed, continuing with send: %v", err)
		}
	}

	// 6. Deliver
	recipients, err := store.ActiveSubscribers()
	if err != nil {
		log.Printf("Error fetching subscribers: %v", err)
		return Response{StatusCode: 500, Message: err.Error(), Deals: len(summarized)}, err
	}
	if len(recipients) == 0 {
		return Response{
			StatusCode: 200,
			Message:    "No active subscribers, nothing to send",
			Deals:      len(summarized),
		}, nil
	}

	subject := fmt.Sprintf("📊 %d Key Financial Deals This Week - %s", len(summarized), content.Headline)
	htmlBody := formatter.FormatHTML(content, "")
	textBody := formatter.FormatText(content)

	results := resend.SendNewsletter(recipients, subject, htmlBody, textBody)

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	log.Printf("Delivered %d/%d newsletters", sent, len(results))

	if sent < len(results) {
		if notifier, err := pipeline.NewNotifierFromEnv(); err == nil {
			if err := notifier.NotifySendReport(content.Headline, results); err != nil {
				log.Printf("Warning: send report notification failed: %v", err)
			}
		}
	}

	return Response{
		StatusCode: 200,
		Message:    fmt.Sprintf("Delivered %d/%d newsletters (%d deals)", sent, len(results), len(summarized)),
		Deals:      len(summarized),
		Sent:       sent,
		Failed:     len(results) - sent,
	}, nil
}

// loadConfig reads settings from environment variables.
func loadConfig() LambdaConfig {
	perFeed := 20
	if v := os.Getenv("PER_FEED"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perFeed = n
		}
	}

	maxStories := 8
	if v := os.Getenv("MAX_STORIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxStories = n
		}
	}

	daysBack := 7
	if v := os.Getenv("DAYS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			daysBack = n
		}
	}

	sources := os.Getenv("SOURCES")
	if sources == "" {
		sources = pipeline.DefaultSources
	}

	return LambdaConfig{
		Sources:    sources,
		PerFeed:    perFeed,
		MaxStories: maxStories,
		DaysBack:   daysBack,
		SyncFirst:  os.Getenv("ENABLE_RESEND_SYNC") == "true",
	}
}

// parseSources splits the SOURCES value, expanding "all" to the defaults.
func parseSources(sourcesRaw string) []string {
	var result []string
	for _, s := range strings.Split(sourcesRaw, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		if s == "all" {
			return strings.Split(pipeline.DefaultSources, ",")
		}
		result = append(result, s)
	}
	return result
}

// notifyCollectionErrors alerts the operator about failed sources.
// Sent only when NOTIFY_* env vars are configured.
func notifyCollectionErrors(errors []string, storyCount int) {
	notifier, err := pipeline.NewNotifierFromEnv()
	if err != nil {
		log.Println("Notify env vars not set, skipping error notification email")
		return
	}

	combined := fmt.Errorf("%d source(s) failed (collected %d stories):\n  %s",
		len(errors), storyCount, strings.Join(errors, "\n  "))
	if err := notifier.NotifyFailure("collection", combined); err != nil {
		log.Printf("Failed to send error notification email: %v", err)
	} else {
		log.Println("Error notification email sent")
	}
}

func main() {
	lambda.Start(Handler)
}
