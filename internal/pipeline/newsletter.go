// =============================================================================
// newsletter.go - newsletter content assembly
// =============================================================================
//
// Turns a batch of summarized deals into NewsletterContent: a headline, an
// executive summary with combined disclosed deal value, per-type sections,
// and a market insights paragraph derived from sector activity.
//
// =============================================================================
package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BuildNewsletterContent assembles the newsletter from summarized deals.
func BuildNewsletterContent(deals []SummarizedDeal) NewsletterContent {
	sections := groupDealsByType(deals)

	return NewsletterContent{
		Headline:         buildHeadline(deals, sections),
		ExecutiveSummary: buildExecutiveSummary(deals, sections),
		DealSections:     sections,
		MarketInsights:   buildMarketInsights(deals),
		GeneratedAt:      time.Now().Format(time.RFC3339),
	}
}

// groupDealsByType buckets deals by deal type, preserving input order
// within each bucket.
func groupDealsByType(deals []SummarizedDeal) map[string][]SummarizedDeal {
	sections := make(map[string][]SummarizedDeal)
	for _, d := range deals {
		sections[d.DealType] = append(sections[d.DealType], d)
	}
	return sections
}

// buildHeadline picks a single-type or roundup headline.
func buildHeadline(deals []SummarizedDeal, sections map[string][]SummarizedDeal) string {
	if len(sections) == 1 {
		for dealType := range sections {
			return fmt.Sprintf("Top %d %s Deals This Week", len(deals), dealType)
		}
	}

	types := sortedSectionTypes(sections)
	return fmt.Sprintf("Weekly Finance Roundup: %d Key Deals Across %s", len(deals), strings.Join(types, ", "))
}

// buildExecutiveSummary reports deal counts per type plus combined
// disclosed value when any amounts were extracted.
func buildExecutiveSummary(deals []SummarizedDeal, sections map[string][]SummarizedDeal) string {
	var parts []string
	for _, t := range sortedSectionTypes(sections) {
		parts = append(parts, fmt.Sprintf("%d %s", len(sections[t]), t))
	}

	summary := fmt.Sprintf("This week we tracked %d significant deals across %s", len(deals), strings.Join(parts, ", "))

	total := totalDisclosedMillions(deals)
	switch {
	case total >= 1000:
		summary += fmt.Sprintf(" with combined disclosed value exceeding $%.1f billion.", total/1000)
	case total > 0:
		summary += fmt.Sprintf(" with combined disclosed value of $%.0f million.", total)
	default:
		summary += "."
	}

	return summary
}

// totalDisclosedMillions sums all parseable deal amounts in millions of
// dollars. Unparseable amounts contribute nothing.
func totalDisclosedMillions(deals []SummarizedDeal) float64 {
	var total float64
	for _, d := range deals {
		total += parseAmountMillions(d.Amount)
	}
	return total
}

// parseAmountMillions converts an extracted amount string like
// "$2.5 billion" or "$300 million" to millions. Only amounts with an
// explicit million/billion unit contribute; bare figures like "$18"
// (a share price, not a deal size) return 0.
func parseAmountMillions(amount string) float64 {
	if amount == "" {
		return 0
	}

	s := strings.ToLower(amount)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}

	switch {
	case strings.Contains(s, "billion"):
		return value * 1000
	case strings.Contains(s, "million"):
		return value
	}
	return 0
}

// buildMarketInsights derives a short activity paragraph from sector counts.
func buildMarketInsights(deals []SummarizedDeal) string {
	sectorCounts := make(map[string]int)
	for _, d := range deals {
		if d.Sector != "" {
			sectorCounts[d.Sector]++
		}
	}

	if len(sectorCounts) == 0 {
		return "Deal activity remained diversified across multiple sectors this week."
	}

	sectors := make([]string, 0, len(sectorCounts))
	for s := range sectorCounts {
		sectors = append(sectors, s)
	}
	// Most active sector first, alphabetical among ties.
	sort.Slice(sectors, func(i, j int) bool {
		if sectorCounts[sectors[i]] != sectorCounts[sectors[j]] {
			return sectorCounts[sectors[i]] > sectorCounts[sectors[j]]
		}
		return sectors[i] < sectors[j]
	})

	top := sectors[0]
	insights := fmt.Sprintf("This week showed particularly strong activity in %s with %d deals. ", top, sectorCounts[top])

	if len(sectors) > 1 {
		others := sectors[1:]
		if len(others) > 2 {
			others = others[:2]
		}
		insights += fmt.Sprintf("Other active sectors include %s.", strings.Join(others, ", "))
	} else {
		insights = strings.TrimSpace(insights)
	}

	return insights
}

// sortedSectionTypes returns section keys in the canonical display order
// used throughout the newsletter, with unknown types appended alphabetically.
func sortedSectionTypes(sections map[string][]SummarizedDeal) []string {
	canonical := []string{"M&A", "IPO", "VC", "IB"}

	var out []string
	seen := make(map[string]bool)
	for _, t := range canonical {
		if _, ok := sections[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}

	var rest []string
	for t := range sections {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
