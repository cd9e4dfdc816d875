// =============================================================================
// classifier.go - keyword-based deal classification and priority scoring
// =============================================================================
//
// Deterministic, rule-based text scoring: no state, no I/O, total over any
// input. A story qualifies as a deal when at least one master keyword appears
// as a substring of its lower-cased title+summary; the qualifying stories are
// classified into VC / M&A / IPO / IB, scored, and ranked.
//
// The keyword lists, group check order, and score constants are behavioral
// contracts: reordering the groups changes classification for texts that
// match more than one group, and the weights are tuning values kept as-is.
//
// =============================================================================
package pipeline

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// dealKeywords is the master keyword list. A story with zero matches is not
// a deal. "valuation" appears twice and therefore counts twice in the score.
var dealKeywords = []string{
	// M&A terms
	"acquisition", "acquired", "merger", "buyout", "takeover",
	"purchase", "deal to buy", "agrees to buy", "strategic partnership",
	"joint venture", "spin-off", "divestiture", "asset sale",

	// VC/PE terms
	"funding", "raises", "investment", "venture capital", "private equity",
	"series a", "series b", "series c", "series d", "pre-seed", "seed round",
	"growth capital", "expansion financing", "mezzanine financing",

	// Investment banking terms
	"underwriting", "ipo", "initial public offering", "secondary offering",
	"bond issuance", "debt financing", "credit facility", "syndicated loan",
	"leveraged buyout", "lbo", "restructuring", "refinancing",
	"rights offering", "convertible bond", "high yield", "investment grade",

	// Corporate finance
	"capital raising", "equity financing", "debt restructuring",
	"financial advisory", "fairness opinion", "valuation", "due diligence",
	"public listing", "going public", "delisting", "privatization",

	// Deal sizes & values
	"billion", "million", "valuation", "enterprise value", "market cap",
}

// Indicator groups for deal type classification, checked most specific
// first: IB -> IPO -> VC -> M&A. First matching group wins.

var ibIndicators = []string{
	"underwriting", "bond issuance", "debt financing", "credit facility",
	"syndicated loan", "restructuring", "refinancing", "rights offering",
	"convertible bond", "high yield", "investment grade", "financial advisory",
}

var ipoIndicators = []string{
	"ipo", "initial public offering", "going public", "public listing",
	"secondary offering", "public debut", "stock market debut",
}

var vcIndicators = []string{
	"funding", "raises", "series a", "series b", "series c", "series d",
	"pre-seed", "seed round", "venture capital", "growth capital",
	"expansion financing", "investment round",
}

var maIndicators = []string{
	"acquisition", "acquired", "merger", "buyout", "takeover",
	"purchase", "deal to buy", "agrees to buy", "leveraged buyout",
	"lbo", "strategic partnership", "joint venture", "privatization",
}

// trustedSources gets a +1.0 credibility bonus in scoring (case-insensitive).
var trustedSources = map[string]bool{
	"bloomberg": true,
	"reuters":   true,
}

// amountPatterns are tried in order; the first match is returned verbatim.
// "$2 billion" must win over the bare "$2" pattern, hence the ordering.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\d+\.?\d*\s?billion`),
	regexp.MustCompile(`(?i)\$\d+\.?\d*\s?B\b`),
	regexp.MustCompile(`(?i)\$\d+\.?\d*\s?million`),
	regexp.MustCompile(`(?i)\$\d+\.?\d*\s?M\b`),
	regexp.MustCompile(`(?i)\$\d+\.?\d*`),
}

// containsAny reports whether any of the indicators appears as a substring.
func containsAny(text string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

// ClassifyDealType maps text to a deal type. The groups are checked in
// order of specificity; a text matching both IB and M&A wording is IB.
// Classification is total: the fallback chain always produces a type.
func ClassifyDealType(text string) string {
	text = strings.ToLower(text)

	switch {
	case containsAny(text, ibIndicators):
		return "IB"
	case containsAny(text, ipoIndicators):
		return "IPO"
	case containsAny(text, vcIndicators):
		return "VC"
	case containsAny(text, maIndicators):
		return "M&A"
	}

	// No indicator group matched: classify from context.
	if strings.Contains(text, "private equity") {
		return "M&A"
	}
	if strings.Contains(text, "investment") {
		return "VC"
	}
	return "M&A"
}

// ExtractAmount returns the first dollar amount found in the text, verbatim
// (e.g. "$3.2 billion"), or "" when none matches. Only the first occurrence
// is considered; multiple amounts in one text are not aggregated.
func ExtractAmount(text string) string {
	for _, re := range amountPatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// MatchingKeywords returns the master-list entries that appear as substrings
// of text. The caller decides what an empty result means (here: not a deal).
func MatchingKeywords(text string) []string {
	var matched []string
	for _, kw := range dealKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// ScoreDeal computes the priority score for a classified deal.
//
// Components:
//   - base:        1.5 per matching keyword
//   - amount:      +4.0 when an amount was extracted, then +3.0 if the text
//     contains "billion", else +2.0 if it contains "million"
//   - deal type:   IPO +2.5, IB +2.0, M&A +1.5, VC +1.0
//   - credibility: +1.0 for trusted sources
//
// The result is a sort key only: unbounded, never compared across runs.
func ScoreDeal(text string, matchingKeywords []string, dealType, amount, sourceName string) float64 {
	score := float64(len(matchingKeywords)) * 1.5

	if amount != "" {
		score += 4.0
		if strings.Contains(text, "billion") {
			score += 3.0
		} else if strings.Contains(text, "million") {
			score += 2.0
		}
	}

	switch dealType {
	case "IPO":
		score += 2.5
	case "IB":
		score += 2.0
	case "M&A":
		score += 1.5
	case "VC":
		score += 1.0
	}

	if trustedSources[strings.ToLower(sourceName)] {
		score += 1.0
	}

	return score
}

// buildDeal classifies and scores a single story. ok is false when the
// story matches no master keyword and should be discarded.
func buildDeal(s Story) (Deal, bool) {
	textToCheck := strings.ToLower(s.Title + " " + s.Summary)

	matching := MatchingKeywords(textToCheck)
	if len(matching) == 0 {
		return Deal{}, false
	}

	dealType := ClassifyDealType(textToCheck)
	amount := ExtractAmount(textToCheck)

	desc := s.Summary
	if desc == "" {
		desc = s.Title
	}

	return Deal{
		Title:         s.Title,
		Description:   truncateRunes(desc, 300),
		Source:        s.Source,
		URL:           s.URL,
		Date:          time.Now().Format("2006-01-02"),
		DealType:      dealType,
		Amount:        amount,
		PriorityScore: ScoreDeal(textToCheck, matching, dealType, amount, s.Source),
	}, true
}

// SelectTopDeals filters, classifies, scores, ranks and truncates a batch
// of candidate stories.
//
// Stories with zero keyword matches are discarded. The rest are sorted by
// score descending with a stable sort, so ties keep discovery order. When
// no story qualifies, the fixed sample set is substituted instead of
// returning an empty batch: the newsletter always has content. Duplicate
// stories across feeds are kept as-is.
func SelectTopDeals(stories []Story, maxStories int) []Deal {
	deals := make([]Deal, 0, len(stories))
	for _, s := range stories {
		if d, ok := buildDeal(s); ok {
			deals = append(deals, d)
		}
	}

	if len(deals) == 0 {
		infof("no qualifying deals found, substituting sample deals")
		deals = sampleDeals()
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].PriorityScore > deals[j].PriorityScore
	})

	if maxStories > 0 && len(deals) > maxStories {
		deals = deals[:maxStories]
	}
	return deals
}

// sampleDeals is the fallback set used when no real deals qualify.
// It covers all four deal types so every newsletter section renders.
func sampleDeals() []Deal {
	today := time.Now().Format("2006-01-02")
	return []Deal{
		{
			Title:         "Goldman Sachs Leads $3.2B IPO for Clean Energy Company",
			Description:   "Goldman Sachs and JPMorgan underwrite $3.2 billion IPO for renewable energy infrastructure company, marking the largest clean tech public offering this year.",
			Source:        "Sample Data",
			URL:           "https://example.com/deal1",
			Date:          today,
			DealType:      "IB",
			Amount:        "$3.2 billion",
			PriorityScore: 9.5,
		},
		{
			Title:         "Microsoft Explores $15B AI Acquisition",
			Description:   "Tech giant Microsoft reportedly in talks to acquire leading AI company for $15 billion to strengthen cloud services.",
			Source:        "Sample Data",
			URL:           "https://example.com/deal2",
			Date:          today,
			DealType:      "M&A",
			Amount:        "$15 billion",
			PriorityScore: 8.5,
		},
		{
			Title:         "Morgan Stanley Structures $5B Syndicated Loan",
			Description:   "Morgan Stanley leads consortium in structuring $5 billion syndicated credit facility for major infrastructure development project.",
			Source:        "Sample Data",
			URL:           "https://example.com/deal3",
			Date:          today,
			DealType:      "IB",
			Amount:        "$5 billion",
			PriorityScore: 8.8,
		},
		{
			Title:         "Biotech Startup Raises $1.8B in Series C",
			Description:   "Revolutionary biotech company developing gene therapies raises $1.8 billion in Series C funding round led by top venture firms.",
			Source:        "Sample Data",
			URL:           "https://example.com/deal4",
			Date:          today,
			DealType:      "VC",
			Amount:        "$1.8 billion",
			PriorityScore: 8.1,
		},
		{
			Title:         "EV Manufacturer Plans $2.1B IPO",
			Description:   "Electric vehicle manufacturer announces plans for $2.1 billion initial public offering, seeking to capitalize on growing EV market.",
			Source:        "Sample Data",
			URL:           "https://example.com/deal5",
			Date:          today,
			DealType:      "IPO",
			Amount:        "$2.1 billion",
			PriorityScore: 8.0,
		},
		{
			Title:         "Private Equity Completes $900M Healthcare Buyout",
			Description:   "Leading private equity firm completes $900 million acquisition of specialty healthcare services company.",
			Source:        "Sample Data",
			URL:           "https://example.com/deal6",
			Date:          today,
			DealType:      "M&A",
			Amount:        "$900 million",
			PriorityScore: 7.2,
		},
	}
}
