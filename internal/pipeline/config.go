// =============================================================================
// config.go - pipeline configuration
// =============================================================================
//
// CLI flag parsing and configuration groups:
//   - InputConfig:     source collection
//   - SummarizeConfig: OpenAI summarization
//   - OutputConfig:    newsletter output and archival
//   - DeliveryConfig:  subscriber delivery and audience sync
//
// =============================================================================
package pipeline

import (
	"flag"
	"strings"
)

// PipelineConfig holds all pipeline settings.
type PipelineConfig struct {
	Input     InputConfig
	Summarize SummarizeConfig
	Output    OutputConfig
	Delivery  DeliveryConfig
}

// InputConfig controls story collection.
type InputConfig struct {
	// StoriesFile skips collection and reads stories from a JSON file.
	StoriesFile string

	// SourcesRaw is the comma separated source string (-sources flag).
	SourcesRaw string

	// PerFeed is the max stories collected per source.
	PerFeed int

	// MaxStories is the number of top-scored deals kept for the newsletter.
	MaxStories int

	// DaysBack is the recency window in days (0 disables filtering).
	DaysBack int
}

// Sources parses SourcesRaw into a normalized slice.
func (c *InputConfig) Sources() []string {
	var result []string
	for _, s := range strings.Split(c.SourcesRaw, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

// SummarizeConfig controls AI summarization.
type SummarizeConfig struct {
	// Disabled skips the OpenAI call and uses fallback summaries.
	Disabled bool
}

// OutputConfig controls where the assembled newsletter goes.
type OutputConfig struct {
	// OutFile writes the newsletter JSON to a file ("" means stdout).
	OutFile string

	// HTMLOut optionally writes the rendered HTML body to a file.
	HTMLOut string

	// NotionClip archives the issue's deals to Notion.
	NotionClip bool

	// NotionPageID is the parent page when creating a new archive database.
	NotionPageID string

	// NotionDatabaseID is an existing archive database ID.
	NotionDatabaseID string
}

// DeliveryConfig controls subscriber delivery and audience sync.
type DeliveryConfig struct {
	// Send delivers the newsletter to all active subscribers via Resend.
	Send bool

	// SyncAudience reconciles the Resend audience before sending.
	SyncAudience bool

	// SyncOnly runs the audience sync and exits without building an issue.
	SyncOnly bool
}

// DefaultSources is the default feed list.
const DefaultSources = "marketwatch,bloomberg,cnbc"

// ParseFlags parses CLI flags into a PipelineConfig.
func ParseFlags() *PipelineConfig {
	cfg := &PipelineConfig{}

	// Input flags
	flag.StringVar(&cfg.Input.StoriesFile, "stories", "", "optional: path to stories.json; if empty, collect from sources")
	flag.StringVar(&cfg.Input.SourcesRaw, "sources", DefaultSources, "sources to collect when --stories is empty")
	flag.IntVar(&cfg.Input.PerFeed, "perFeed", 20, "max stories to collect per source")
	flag.IntVar(&cfg.Input.MaxStories, "maxStories", 8, "max deals to include in the newsletter")
	flag.IntVar(&cfg.Input.DaysBack, "daysBack", 7, "recency window in days (0 disables)")

	// Summarize flags
	flag.BoolVar(&cfg.Summarize.Disabled, "noSummarize", false, "skip OpenAI summarization and use fallback summaries")

	// Output flags
	flag.StringVar(&cfg.Output.OutFile, "out", "", "optional: write newsletter JSON to this path (default: stdout)")
	flag.StringVar(&cfg.Output.HTMLOut, "htmlOut", "", "optional: write rendered HTML body to this path")
	flag.BoolVar(&cfg.Output.NotionClip, "notionClip", false, "archive deals to Notion database")
	flag.StringVar(&cfg.Output.NotionPageID, "notionPageID", "", "parent page ID for creating new Notion database (required for new DB)")
	flag.StringVar(&cfg.Output.NotionDatabaseID, "notionDatabaseID", "", "existing Notion database ID (optional, will create new if empty)")

	// Delivery flags
	flag.BoolVar(&cfg.Delivery.Send, "send", false, "send newsletter to active subscribers via Resend")
	flag.BoolVar(&cfg.Delivery.SyncAudience, "syncAudience", false, "sync Resend audience with Supabase before sending")
	flag.BoolVar(&cfg.Delivery.SyncOnly, "syncOnly", false, "run audience sync and exit")

	flag.Parse()
	return cfg
}
