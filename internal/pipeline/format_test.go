package pipeline

import (
	"strings"
	"testing"
)

func testContent() NewsletterContent {
	return NewsletterContent{
		Headline:         "Top 2 Deals This Week",
		ExecutiveSummary: "This week we tracked 2 significant deals.",
		DealSections: map[string][]SummarizedDeal{
			"M&A": {
				{
					Title:             "MegaCorp acquires rival",
					AISummary:         "MegaCorp buys its main competitor.",
					KeyPoints:         []string{"Deal Type: M&A", "Amount: $10 billion"},
					CompaniesInvolved: []string{"MegaCorp", "Rival Inc"},
					Source:            "Bloomberg",
					Date:              "2026-08-24",
					DealType:          "M&A",
					Amount:            "$10 billion",
					URL:               "https://example.com/mega",
				},
			},
			"VC": {
				{
					Title:     "Startup raises Series B",
					AISummary: "A promising round.",
					Source:    "Cnbc",
					Date:      "2026-08-24",
					DealType:  "VC",
					URL:       "https://example.com/startup",
				},
			},
		},
		MarketInsights: "Strong week for tech.",
	}
}

func TestFormatHTML(t *testing.T) {
	f := NewFormatter()
	html := f.FormatHTML(testContent(), "")

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Finance Insights Finance Brief",
		"Good morning! Here's your weekly roundup",
		"Top 2 Deals This Week",
		"Mergers &amp; Acquisitions",
		"Venture Capital",
		"$10 billion",
		"https://example.com/mega",
		"This newsletter was generated automatically from verified financial news sources.",
		"Unsubscribe",
		"#1a365d", // brand color in styles
		"#3b82f6", // M&A accent
		"#10b981", // VC accent
		"Companies: MegaCorp, Rival Inc",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("FormatHTML output missing %q", want)
		}
	}

	// M&A section renders before VC.
	maIdx := strings.Index(html, "Mergers &amp; Acquisitions")
	vcIdx := strings.Index(html, "Venture Capital")
	if maIdx > vcIdx {
		t.Error("M&A section should render before VC")
	}
}

func TestFormatHTMLLogo(t *testing.T) {
	f := NewFormatter()
	if strings.Contains(f.FormatHTML(testContent(), ""), "<img") {
		t.Error("no logo configured, but an img tag rendered")
	}

	f.LogoURL = "https://example.com/logo.png"
	if !strings.Contains(f.FormatHTML(testContent(), ""), `src="https://example.com/logo.png"`) {
		t.Error("configured logo missing from header")
	}
}

func TestFormatHTMLGreetingWithName(t *testing.T) {
	f := NewFormatter()
	html := f.FormatHTML(testContent(), "Jordan")
	if !strings.Contains(html, "Good morning, Jordan!") {
		t.Error("personalized greeting missing recipient name")
	}
}

func TestFormatHTMLEscapesContent(t *testing.T) {
	content := testContent()
	content.DealSections["M&A"][0].Title = `<script>alert("x")</script>`

	f := NewFormatter()
	html := f.FormatHTML(content, "")
	if strings.Contains(html, `<script>alert`) {
		t.Error("deal title was not HTML-escaped")
	}
}

func TestFormatText(t *testing.T) {
	f := NewFormatter()
	text := f.FormatText(testContent())

	for _, want := range []string{
		strings.Repeat("=", 60),
		"EXECUTIVE SUMMARY: Top 2 Deals This Week",
		"MERGERS & ACQUISITIONS (1 deals)",
		"VENTURE CAPITAL (1 deals)",
		"1. MegaCorp acquires rival",
		"   Amount: $10 billion",
		"   Source: Bloomberg | Date: 2026-08-24",
		"   Link: https://example.com/mega",
		"MARKET INSIGHTS",
		"Strong week for tech.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("FormatText output missing %q", want)
		}
	}

	// Deals with no amount omit the amount line.
	if strings.Contains(text, "Amount: \n") {
		t.Error("empty amount should not render an Amount line")
	}
	if strings.Contains(text, "<") {
		t.Error("plain-text body should not contain HTML")
	}
}

func TestDealTypeClass(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"M&A", "ma"},
		{"VC", "vc"},
		{"IPO", "ipo"},
		{"IB", "ib"},
	}
	for _, tt := range tests {
		if got := dealTypeClass(tt.in); got != tt.want {
			t.Errorf("dealTypeClass(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDealTypeDefaults(t *testing.T) {
	if got := dealTypeColor("Unknown"); got != "#6b7280" {
		t.Errorf("dealTypeColor default = %q", got)
	}
	if got := dealTypeIcon("Unknown"); got != "💼" {
		t.Errorf("dealTypeIcon default = %q", got)
	}
	if got := dealTypeName("Unknown"); got != "Unknown" {
		t.Errorf("dealTypeName default = %q", got)
	}
}
