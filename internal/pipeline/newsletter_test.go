package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildHeadline(t *testing.T) {
	single := []SummarizedDeal{
		{Title: "a", DealType: "VC"},
		{Title: "b", DealType: "VC"},
	}
	content := BuildNewsletterContent(single)
	if got, want := content.Headline, "Top 2 VC Deals This Week"; got != want {
		t.Errorf("single-type headline = %q, want %q", got, want)
	}

	mixed := []SummarizedDeal{
		{Title: "a", DealType: "VC"},
		{Title: "b", DealType: "M&A"},
		{Title: "c", DealType: "IPO"},
	}
	content = BuildNewsletterContent(mixed)
	if got, want := content.Headline, "Weekly Finance Roundup: 3 Key Deals Across M&A, IPO, VC"; got != want {
		t.Errorf("mixed headline = %q, want %q", got, want)
	}
}

func TestBuildExecutiveSummary(t *testing.T) {
	tests := []struct {
		name  string
		deals []SummarizedDeal
		want  string
	}{
		{
			name: "no disclosed value",
			deals: []SummarizedDeal{
				{DealType: "VC"},
			},
			want: "This week we tracked 1 significant deals across 1 VC.",
		},
		{
			name: "bare share-price amount adds no disclosed value",
			deals: []SummarizedDeal{
				{DealType: "IPO", Amount: "$18"},
			},
			want: "This week we tracked 1 significant deals across 1 IPO.",
		},
		{
			name: "millions",
			deals: []SummarizedDeal{
				{DealType: "VC", Amount: "$300 million"},
				{DealType: "VC", Amount: "$200 million"},
			},
			want: "This week we tracked 2 significant deals across 2 VC with combined disclosed value of $500 million.",
		},
		{
			name: "billions",
			deals: []SummarizedDeal{
				{DealType: "M&A", Amount: "$2.5 billion"},
				{DealType: "IPO", Amount: "$500 million"},
			},
			want: "This week we tracked 2 significant deals across 1 M&A, 1 IPO with combined disclosed value exceeding $3.0 billion.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNewsletterContent(tt.deals).ExecutiveSummary
			if got != tt.want {
				t.Errorf("ExecutiveSummary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseAmountMillions(t *testing.T) {
	tests := []struct {
		amount string
		want   float64
	}{
		{"", 0},
		{"$500 million", 500},
		{"$2.5 billion", 2500},
		{"$1,200 million", 1200},
		{"$3B", 0},  // suffix form is not parseable as a float field
		{"$18", 0},  // bare figure is a share price, not a deal size
		{"$500", 0}, // no unit, contributes nothing
		{"garbage", 0},
	}

	for _, tt := range tests {
		if got := parseAmountMillions(tt.amount); got != tt.want {
			t.Errorf("parseAmountMillions(%q) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestGroupDealsByType(t *testing.T) {
	deals := []SummarizedDeal{
		{Title: "first vc", DealType: "VC"},
		{Title: "ma", DealType: "M&A"},
		{Title: "second vc", DealType: "VC"},
	}

	sections := groupDealsByType(deals)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	want := []string{"first vc", "second vc"}
	var got []string
	for _, d := range sections["VC"] {
		got = append(got, d.Title)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("VC section order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMarketInsights(t *testing.T) {
	noSectors := BuildNewsletterContent([]SummarizedDeal{{DealType: "VC"}})
	if got, want := noSectors.MarketInsights, "Deal activity remained diversified across multiple sectors this week."; got != want {
		t.Errorf("MarketInsights = %q, want %q", got, want)
	}

	deals := []SummarizedDeal{
		{DealType: "VC", Sector: "Healthcare"},
		{DealType: "VC", Sector: "Healthcare"},
		{DealType: "M&A", Sector: "Energy"},
		{DealType: "IPO", Sector: "Fintech"},
	}
	got := BuildNewsletterContent(deals).MarketInsights
	if !strings.HasPrefix(got, "This week showed particularly strong activity in Healthcare with 2 deals. ") {
		t.Errorf("MarketInsights missing top sector: %q", got)
	}
	if !strings.Contains(got, "Other active sectors include") {
		t.Errorf("MarketInsights missing other sectors: %q", got)
	}

	onlyOne := BuildNewsletterContent([]SummarizedDeal{{DealType: "VC", Sector: "Fintech"}}).MarketInsights
	if strings.Contains(onlyOne, "Other active sectors") {
		t.Errorf("single-sector insights should not mention other sectors: %q", onlyOne)
	}
}

func TestSortedSectionTypes(t *testing.T) {
	sections := map[string][]SummarizedDeal{
		"VC":    {{}},
		"IB":    {{}},
		"M&A":   {{}},
		"IPO":   {{}},
		"Other": {{}},
	}
	want := []string{"M&A", "IPO", "VC", "IB", "Other"}
	if diff := cmp.Diff(want, sortedSectionTypes(sections)); diff != "" {
		t.Errorf("section order mismatch (-want +got):\n%s", diff)
	}
}
