package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAIResponseJSON(t *testing.T) {
	response := `{
		"summary": "Acme raises $50 million in Series B funding.",
		"key_points": ["Led by Example Ventures", "Funds product expansion"],
		"companies": ["Acme Corp", "Example Ventures"],
		"sector": "Fintech"
	}`

	got := parseAIResponse(response)
	want := summaryData{
		Summary:   "Acme raises $50 million in Series B funding.",
		KeyPoints: []string{"Led by Example Ventures", "Funds product expansion"},
		Companies: []string{"Acme Corp", "Example Ventures"},
		Sector:    "Fintech",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseAIResponse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAIResponseProse(t *testing.T) {
	response := `Summary: Acme raises a major round.

Key Points:
- Led by Example Ventures
- Funds product expansion

Companies:
- Acme Corp
- Example Ventures

Sector: Fintech`

	got := parseAIResponse(response)
	if got.Summary != "Acme raises a major round." {
		t.Errorf("Summary = %q", got.Summary)
	}
	wantPoints := []string{"Led by Example Ventures", "Funds product expansion"}
	if diff := cmp.Diff(wantPoints, got.KeyPoints); diff != "" {
		t.Errorf("KeyPoints mismatch (-want +got):\n%s", diff)
	}
	wantCompanies := []string{"Acme Corp", "Example Ventures"}
	if diff := cmp.Diff(wantCompanies, got.Companies); diff != "" {
		t.Errorf("Companies mismatch (-want +got):\n%s", diff)
	}
	if got.Sector != "Fintech" {
		t.Errorf("Sector = %q, want Fintech", got.Sector)
	}
}

func TestParseAIResponseEmptySummaryFallback(t *testing.T) {
	got := parseAIResponse("Sector: Energy")
	if got.Summary != "Recent Energy deal with potential market impact." {
		t.Errorf("Summary = %q", got.Summary)
	}

	got = parseAIResponse("nothing useful here")
	if got.Summary != "Recent business deal with potential market impact." {
		t.Errorf("Summary = %q", got.Summary)
	}
}

func TestCreateFallbackSummary(t *testing.T) {
	deal := Deal{
		Title:         "Acme Corp Raises $50 million Series B",
		Description:   "Acme Corp announced a new round.",
		Source:        "Bloomberg",
		URL:           "https://example.com/acme",
		Date:          "2026-08-24",
		DealType:      "VC",
		Amount:        "$50 million",
		PriorityScore: 12.5,
	}

	got := createFallbackSummary(deal)
	if got.AISummary != "$50 million Venture capital funding round for growth and expansion." {
		t.Errorf("AISummary = %q", got.AISummary)
	}
	wantPoints := []string{
		"Deal Type: VC",
		"Amount: $50 million",
		"Source: Bloomberg",
		"Date: 2026-08-24",
	}
	if diff := cmp.Diff(wantPoints, got.KeyPoints); diff != "" {
		t.Errorf("KeyPoints mismatch (-want +got):\n%s", diff)
	}
	if got.PriorityScore != deal.PriorityScore {
		t.Errorf("PriorityScore = %v, want %v", got.PriorityScore, deal.PriorityScore)
	}
}

func TestCreateFallbackSummaryNoAmount(t *testing.T) {
	got := createFallbackSummary(Deal{DealType: "IPO", Source: "Reuters", Date: "2026-08-24"})
	if got.AISummary != "Initial public offering to raise capital through public markets." {
		t.Errorf("AISummary = %q", got.AISummary)
	}
	wantPoints := []string{"Deal Type: IPO", "Source: Reuters", "Date: 2026-08-24"}
	if diff := cmp.Diff(wantPoints, got.KeyPoints); diff != "" {
		t.Errorf("KeyPoints mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateFallbackSummaryUnknownType(t *testing.T) {
	got := createFallbackSummary(Deal{DealType: "Other"})
	if got.AISummary != "Significant financial transaction with market implications." {
		t.Errorf("AISummary = %q", got.AISummary)
	}
}

func TestFallbackSummaries(t *testing.T) {
	deals := []Deal{
		{Title: "a", DealType: "VC"},
		{Title: "b", DealType: "M&A"},
	}
	got := FallbackSummaries(deals)
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2", len(got))
	}
	if got[0].Title != "a" || got[1].Title != "b" {
		t.Error("summaries should preserve deal order")
	}
}

func TestBuildSummarizationPrompt(t *testing.T) {
	deal := Deal{
		Title:    "MegaCorp acquires rival",
		DealType: "M&A",
		Source:   "Bloomberg",
		Date:     "2026-08-24",
	}

	prompt := buildSummarizationPrompt(deal)
	if !strings.Contains(prompt, "Amount: Not specified") {
		t.Error("prompt should mark missing amounts as Not specified")
	}
	if !strings.Contains(prompt, "MegaCorp acquires rival") {
		t.Error("prompt missing deal title")
	}
	if !strings.Contains(prompt, `"key_points"`) {
		t.Error("prompt missing requested JSON format")
	}
}

func TestNewSummarizerRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewSummarizer(""); err == nil {
		t.Error("NewSummarizer should fail without an API key")
	}
	if _, err := NewSummarizer("sk-test"); err != nil {
		t.Errorf("NewSummarizer with explicit key failed: %v", err)
	}
}
