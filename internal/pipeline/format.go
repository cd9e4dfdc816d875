// =============================================================================
// format.go - newsletter rendering (HTML + plain text)
// =============================================================================
//
// Renders NewsletterContent into the HTML email body and a plain-text
// alternative. Sections render in a fixed order (M&A, IPO, VC, IB) with any
// other deal types appended after; each type carries its own accent color
// and icon.
//
// =============================================================================
package pipeline

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Formatter renders newsletters with a configurable brand.
type Formatter struct {
	CompanyName string
	LogoURL     string
	BrandColor  string
}

// NewFormatter returns a formatter with the default brand.
func NewFormatter() *Formatter {
	return &Formatter{
		CompanyName: "Finance Insights",
		BrandColor:  "#1a365d",
	}
}

// Per-type accent colors and icons.
var dealTypeColors = map[string]string{
	"VC":  "#10b981",
	"M&A": "#3b82f6",
	"IPO": "#8b5cf6",
	"IB":  "#f59e0b",
}

var dealTypeIcons = map[string]string{
	"VC":  "🚀",
	"M&A": "🤝",
	"IPO": "📈",
	"IB":  "🏦",
}

var dealTypeNames = map[string]string{
	"VC":  "Venture Capital",
	"M&A": "Mergers & Acquisitions",
	"IPO": "Initial Public Offerings",
	"IB":  "Investment Banking",
}

func dealTypeColor(t string) string {
	if c, ok := dealTypeColors[t]; ok {
		return c
	}
	return "#6b7280"
}

func dealTypeIcon(t string) string {
	if i, ok := dealTypeIcons[t]; ok {
		return i
	}
	return "💼"
}

func dealTypeName(t string) string {
	if n, ok := dealTypeNames[t]; ok {
		return n
	}
	return t
}

// dealTypeClass derives a CSS class suffix from a deal type
// ("M&A" -> "ma", "VC" -> "vc").
func dealTypeClass(t string) string {
	s := strings.ToLower(t)
	s = strings.ReplaceAll(s, "&", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// FormatHTML renders the full HTML email body.
func (f *Formatter) FormatHTML(content NewsletterContent, recipientName string) string {
	var b strings.Builder

	date := time.Now().Format("January 2, 2006")

	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>`)
	b.WriteString(html.EscapeString(content.Headline))
	b.WriteString(`</title>
<style>
`)
	b.WriteString(f.styles())
	b.WriteString(`</style>
</head>
<body>
<div class="container">
`)

	// Header
	b.WriteString(`<div class="header">
`)
	if f.LogoURL != "" {
		fmt.Fprintf(&b, `<img class="logo" src="%s" alt="%s">
`, html.EscapeString(f.LogoURL), html.EscapeString(f.CompanyName))
	}
	fmt.Fprintf(&b, `<h1>%s Finance Brief</h1>
<div class="date">%s</div>
</div>
`, html.EscapeString(f.CompanyName), date)

	// Greeting
	greeting := "Good morning"
	if recipientName != "" {
		greeting += ", " + html.EscapeString(recipientName)
	}
	fmt.Fprintf(&b, `<div class="greeting">%s! Here's your weekly roundup of the most important deals in investment banking, venture capital, and M&amp;A.</div>
`, greeting)

	// Executive summary
	fmt.Fprintf(&b, `<div class="executive-summary">
<h2>%s</h2>
<p>%s</p>
</div>
`, html.EscapeString(content.Headline), html.EscapeString(content.ExecutiveSummary))

	// Deal sections
	for _, dealType := range sortedSectionTypes(content.DealSections) {
		deals := content.DealSections[dealType]
		if len(deals) == 0 {
			continue
		}
		b.WriteString(f.formatSectionHTML(dealType, deals))
	}

	// Market insights
	if content.MarketInsights != "" {
		fmt.Fprintf(&b, `<div class="market-insights">
<h2>Market Insights</h2>
<p>%s</p>
</div>
`, html.EscapeString(content.MarketInsights))
	}

	// Footer
	b.WriteString(`<div class="footer">
<p>This newsletter was generated automatically from verified financial news sources.</p>
<p>Questions? Reply to this email or contact our team.</p>
<p class="unsubscribe"><a href="{{unsubscribe_url}}">Unsubscribe</a> | <a href="{{preferences_url}}">Update Preferences</a></p>
</div>
</div>
</body>
</html>
`)

	return b.String()
}

// formatSectionHTML renders one deal-type section.
func (f *Formatter) formatSectionHTML(dealType string, deals []SummarizedDeal) string {
	var b strings.Builder

	class := dealTypeClass(dealType)

	fmt.Fprintf(&b, `<div class="section">
<h2 class="section-title %s">%s %s <span class="deal-count">(%d deals)</span></h2>
`, class, dealTypeIcon(dealType), html.EscapeString(dealTypeName(dealType)), len(deals))

	for _, deal := range deals {
		fmt.Fprintf(&b, `<div class="deal-card %s">
<div class="deal-header">
<span class="deal-tag %s">%s</span>
`, class, class, html.EscapeString(dealType))
		if deal.Amount != "" {
			fmt.Fprintf(&b, `<span class="deal-amount">%s</span>
`, html.EscapeString(deal.Amount))
		}
		fmt.Fprintf(&b, `</div>
<h3 class="deal-title"><a href="%s">%s</a></h3>
<p class="deal-summary">%s</p>
`, html.EscapeString(deal.URL), html.EscapeString(deal.Title), html.EscapeString(deal.AISummary))

		if len(deal.KeyPoints) > 0 {
			b.WriteString(`<ul class="key-points">
`)
			for _, p := range deal.KeyPoints {
				fmt.Fprintf(&b, `<li>%s</li>
`, html.EscapeString(p))
			}
			b.WriteString(`</ul>
`)
		}

		if len(deal.CompaniesInvolved) > 0 {
			fmt.Fprintf(&b, `<p class="deal-companies">Companies: %s</p>
`, html.EscapeString(strings.Join(deal.CompaniesInvolved, ", ")))
		}

		fmt.Fprintf(&b, `<div class="deal-meta">%s | %s</div>
</div>
`, html.EscapeString(deal.Source), html.EscapeString(deal.Date))
	}

	b.WriteString(`</div>
`)
	return b.String()
}

// styles returns the embedded stylesheet. Colors keyed to the deal-type
// accent palette plus the configured brand color.
func (f *Formatter) styles() string {
	var b strings.Builder

	fmt.Fprintf(&b, `body { margin: 0; padding: 0; background-color: #f3f4f6; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: #111827; }
.container { max-width: 640px; margin: 0 auto; background-color: #ffffff; }
.header { background-color: %s; color: #ffffff; padding: 32px 24px; text-align: center; }
.header .logo { max-height: 48px; margin-bottom: 12px; }
.header h1 { margin: 0; font-size: 24px; }
.header .date { margin-top: 8px; font-size: 14px; opacity: 0.85; }
.greeting { padding: 24px; font-size: 16px; line-height: 1.5; }
.executive-summary { margin: 0 24px 24px; padding: 20px; background-color: #f9fafb; border-left: 4px solid %s; border-radius: 4px; }
.executive-summary h2 { margin: 0 0 8px; font-size: 18px; color: %s; }
.executive-summary p { margin: 0; font-size: 14px; line-height: 1.6; }
.section { padding: 0 24px 8px; }
.section-title { font-size: 18px; margin: 16px 0 12px; }
.deal-count { font-size: 13px; font-weight: normal; color: #6b7280; }
.deal-card { border: 1px solid #e5e7eb; border-radius: 6px; padding: 16px; margin-bottom: 16px; }
.deal-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 8px; }
.deal-tag { display: inline-block; color: #ffffff; font-size: 11px; font-weight: bold; padding: 2px 8px; border-radius: 10px; }
.deal-amount { font-size: 14px; font-weight: bold; color: #065f46; }
.deal-title { margin: 0 0 8px; font-size: 16px; line-height: 1.4; }
.deal-title a { color: #111827; text-decoration: none; }
.deal-summary { margin: 0 0 8px; font-size: 14px; line-height: 1.6; color: #374151; }
.key-points { margin: 0 0 8px; padding-left: 20px; font-size: 13px; color: #4b5563; }
.key-points li { margin-bottom: 4px; }
.deal-companies { margin: 0 0 8px; font-size: 13px; color: #4b5563; }
.deal-meta { font-size: 12px; color: #9ca3af; }
.market-insights { margin: 0 24px 24px; padding: 20px; background-color: #eff6ff; border-radius: 6px; }
.market-insights h2 { margin: 0 0 8px; font-size: 18px; color: %s; }
.market-insights p { margin: 0; font-size: 14px; line-height: 1.6; }
.footer { padding: 24px; background-color: #f9fafb; text-align: center; font-size: 12px; color: #6b7280; border-top: 1px solid #e5e7eb; }
.footer p { margin: 4px 0; }
.unsubscribe a { color: #6b7280; }
`, f.BrandColor, f.BrandColor, f.BrandColor, f.BrandColor)

	// Per-type accents.
	for _, t := range []string{"M&A", "IPO", "VC", "IB"} {
		class := dealTypeClass(t)
		color := dealTypeColor(t)
		fmt.Fprintf(&b, `.section-title.%s { color: %s; }
.deal-card.%s { border-left: 4px solid %s; }
.deal-tag.%s { background-color: %s; }
`, class, color, class, color, class, color)
	}

	return b.String()
}

// FormatText renders the plain-text alternative body.
func (f *Formatter) FormatText(content NewsletterContent) string {
	var b strings.Builder

	rule := strings.Repeat("=", 60)
	thinRule := strings.Repeat("-", 40)

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%s Finance Brief - %s\n", f.CompanyName, time.Now().Format("January 2, 2006"))
	b.WriteString(rule + "\n\n")

	fmt.Fprintf(&b, "EXECUTIVE SUMMARY: %s\n\n%s\n\n", content.Headline, content.ExecutiveSummary)

	for _, dealType := range sortedSectionTypes(content.DealSections) {
		deals := content.DealSections[dealType]
		if len(deals) == 0 {
			continue
		}

		fmt.Fprintf(&b, "%s\n%s (%d deals)\n%s\n\n", thinRule, strings.ToUpper(dealTypeName(dealType)), len(deals), thinRule)

		for i, deal := range deals {
			fmt.Fprintf(&b, "%d. %s\n", i+1, deal.Title)
			if deal.Amount != "" {
				fmt.Fprintf(&b, "   Amount: %s\n", deal.Amount)
			}
			fmt.Fprintf(&b, "   Summary: %s\n", deal.AISummary)
			if len(deal.CompaniesInvolved) > 0 {
				fmt.Fprintf(&b, "   Companies: %s\n", strings.Join(deal.CompaniesInvolved, ", "))
			}
			fmt.Fprintf(&b, "   Source: %s | Date: %s\n", deal.Source, deal.Date)
			fmt.Fprintf(&b, "   Link: %s\n\n", deal.URL)
		}
	}

	if content.MarketInsights != "" {
		fmt.Fprintf(&b, "%s\nMARKET INSIGHTS\n%s\n\n%s\n\n", thinRule, thinRule, content.MarketInsights)
	}

	b.WriteString(rule + "\n")
	b.WriteString("This newsletter was generated automatically from verified financial news sources.\n")
	b.WriteString("Questions? Reply to this email or contact our team.\n")

	return b.String()
}
