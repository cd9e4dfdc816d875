// =============================================================================
// types.go - data structures
// =============================================================================
//
// Types shared across the deal-relay pipeline:
//   - Story:             raw candidate item collected from a news source
//   - Deal:              classified + scored deal
//   - SummarizedDeal:    deal enriched with an AI-generated summary
//   - NewsletterContent: assembled newsletter sections
//   - EmailResult:       per-recipient send outcome
//
// =============================================================================
package pipeline

// Story is a raw candidate item from a news source, before classification.
// Collectors emit Stories; the classifier decides which become Deals.
type Story struct {
	Source      string `json:"source"`                // source name (e.g. "Marketwatch")
	Title       string `json:"title"`                 // item title
	Summary     string `json:"summary,omitempty"`     // feed description / scraped body, capped at 300 chars
	URL         string `json:"url"`                   // item URL
	PublishedAt string `json:"publishedAt,omitempty"` // publication time (RFC3339 when known, else "")
}

// Deal is a classified financial news item. Immutable after creation;
// each pipeline run produces a fresh collection that is discarded at the end.
type Deal struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Source        string  `json:"source"`
	URL           string  `json:"url"`
	Date          string  `json:"date"`             // ingestion day, "2006-01-02"
	DealType      string  `json:"dealType"`         // "VC" | "M&A" | "IPO" | "IB"
	Amount        string  `json:"amount,omitempty"` // raw matched currency expression, "" when none
	PriorityScore float64 `json:"priorityScore"`    // sort key only; unbounded, never normalized
}

// SummarizedDeal is a Deal annotated with AI-generated prose.
type SummarizedDeal struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	AISummary         string   `json:"aiSummary"`
	KeyPoints         []string `json:"keyPoints"`
	Source            string   `json:"source"`
	URL               string   `json:"url"`
	Date              string   `json:"date"`
	DealType          string   `json:"dealType"`
	Amount            string   `json:"amount,omitempty"`
	PriorityScore     float64  `json:"priorityScore"`
	CompaniesInvolved []string `json:"companiesInvolved,omitempty"`
	Sector            string   `json:"sector,omitempty"`
}

// NewsletterContent holds the assembled newsletter sections.
//
// DealSections is keyed by deal type ("M&A", "IPO", "VC", "IB"); the
// formatter decides rendering order.
type NewsletterContent struct {
	Headline         string                      `json:"headline"`
	ExecutiveSummary string                      `json:"executiveSummary"`
	DealSections     map[string][]SummarizedDeal `json:"dealSections"`
	MarketInsights   string                      `json:"marketInsights"`
	GeneratedAt      string                      `json:"generatedAt"` // RFC3339
}

// EmailResult is the outcome of a single newsletter send attempt.
type EmailResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	Recipient string `json:"recipient"`
}
