// =============================================================================
// summarizer.go - OpenAI deal summarization
// =============================================================================
//
// Calls the OpenAI chat completions API to produce an executive-briefing
// summary per deal. The model is asked for structured JSON; when it answers
// in prose anyway, a line-based parser recovers the fields, and when the API
// call itself fails a deterministic fallback summary is built from the deal
// type. Summarization is therefore total: every Deal in always yields a
// SummarizedDeal out.
//
// Rate limiting: at most 50 requests per minute, with a minimum 1.2s gap
// between consecutive requests.
//
// Debugging:
//
//	DEBUG_OPENAI=1 - dump raw API responses to stderr
//
// =============================================================================
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	openAIChatURL        = "https://api.openai.com/v1/chat/completions"
	summarizerModel      = "gpt-4"
	summarizerMaxTokens  = 300
	summarizerTemp       = 0.3
	summarizerTopP       = 0.9
	requestsPerMinute    = 50
	minRequestInterval   = 1200 * time.Millisecond
	summarizerHTTPWindow = 60 * time.Second
)

const summarizerSystemPrompt = "You are a professional financial analyst specializing in investment banking, venture capital, and M&A. Provide concise, accurate summaries of financial deals for executive briefings."

// Summarizer produces AI summaries for deals.
type Summarizer struct {
	apiKey string
	client *http.Client

	// rate limiting state
	requestCount int
	minuteStart  time.Time
	lastRequest  time.Time
}

// NewSummarizer creates a summarizer. apiKey falls back to OPENAI_API_KEY.
func NewSummarizer(apiKey string) (*Summarizer, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return &Summarizer{
		apiKey:      apiKey,
		client:      &http.Client{Timeout: summarizerHTTPWindow},
		minuteStart: time.Now(),
	}, nil
}

// chat completions request/response wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// summaryData is the structured payload the model is asked to return.
type summaryData struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Companies []string `json:"companies"`
	Sector    string   `json:"sector"`
}

// SummarizeDeals summarizes each deal in order. API failures produce a
// fallback summary for that deal; the batch never shrinks.
func (s *Summarizer) SummarizeDeals(deals []Deal) []SummarizedDeal {
	infof("starting summarization for %d deals", len(deals))

	out := make([]SummarizedDeal, 0, len(deals))
	for i, deal := range deals {
		s.waitForRateLimit()

		sd, err := s.summarizeDeal(deal)
		if err != nil {
			errorf("summarizing deal %d (%s): %v", i+1, truncateString(deal.Title, 50), err)
			sd = createFallbackSummary(deal)
		}
		out = append(out, sd)
	}

	infof("summarization complete: %d deals processed", len(out))
	return out
}

// summarizeDeal calls the chat completions API for a single deal.
func (s *Summarizer) summarizeDeal(deal Deal) (SummarizedDeal, error) {
	reqBody := chatRequest{
		Model: summarizerModel,
		Messages: []chatMessage{
			{Role: "system", Content: summarizerSystemPrompt},
			{Role: "user", Content: buildSummarizationPrompt(deal)},
		},
		MaxTokens:   summarizerMaxTokens,
		Temperature: summarizerTemp,
		TopP:        summarizerTopP,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return SummarizedDeal{}, err
	}

	req, err := http.NewRequest("POST", openAIChatURL, bytes.NewReader(b))
	if err != nil {
		return SummarizedDeal{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SummarizedDeal{}, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return SummarizedDeal{}, fmt.Errorf("openai chat error: %s\n%s", resp.Status, string(bodyBytes))
	}

	if os.Getenv("DEBUG_OPENAI") != "" {
		fmt.Fprintf(os.Stderr, "[DEBUG] OpenAI response for '%s':\n%s\n", deal.Title, string(bodyBytes))
	}

	var r chatResponse
	if err := json.Unmarshal(bodyBytes, &r); err != nil {
		return SummarizedDeal{}, fmt.Errorf("failed to parse openai response: %w", err)
	}
	if len(r.Choices) == 0 {
		return SummarizedDeal{}, fmt.Errorf("openai response has no choices")
	}

	data := parseAIResponse(strings.TrimSpace(r.Choices[0].Message.Content))

	return SummarizedDeal{
		Title:             deal.Title,
		Description:       deal.Description,
		AISummary:         data.Summary,
		KeyPoints:         data.KeyPoints,
		Source:            deal.Source,
		URL:               deal.URL,
		Date:              deal.Date,
		DealType:          deal.DealType,
		Amount:            deal.Amount,
		PriorityScore:     deal.PriorityScore,
		CompaniesInvolved: data.Companies,
		Sector:            data.Sector,
	}, nil
}

// buildSummarizationPrompt formats the structured prompt for one deal.
func buildSummarizationPrompt(deal Deal) string {
	amount := deal.Amount
	if amount == "" {
		amount = "Not specified"
	}

	return fmt.Sprintf(`Please analyze this financial deal and provide a structured summary in JSON format:

DEAL INFORMATION:
Title: %s
Description: %s
Deal Type: %s
Amount: %s
Source: %s
Date: %s

Please provide your response in the following JSON format:
{
    "summary": "A concise 2-3 sentence summary highlighting the most important aspects of this deal",
    "key_points": ["Point 1", "Point 2", "Point 3"],
    "companies": ["Company 1", "Company 2"],
    "sector": "Industry/Sector"
}

Requirements:
- Summary should be 50-80 words, professional tone
- Key points should be 3-4 bullet points covering: deal structure, strategic rationale, market impact, and financial details
- Extract all company names mentioned
- Identify the primary industry/sector
- Focus on facts, avoid speculation
- Use present tense for recent deals`,
		deal.Title, deal.Description, deal.DealType, amount, deal.Source, deal.Date)
}

// parseAIResponse extracts structured data from the model's answer.
// JSON is tried first; prose answers go through the line-based parser.
func parseAIResponse(response string) summaryData {
	if strings.HasPrefix(strings.TrimSpace(response), "{") {
		var data summaryData
		if err := json.Unmarshal([]byte(response), &data); err == nil {
			return data
		}
		warnf("AI response looked like JSON but failed to parse, falling back to manual parsing")
	} else {
		warnf("AI response not in JSON format, parsing manually")
	}
	return manualParseResponse(response)
}

// manualParseResponse recovers summary/key points/companies/sector from a
// prose answer by scanning for section labels and bullet lines.
func manualParseResponse(response string) summaryData {
	var data summaryData
	currentSection := ""

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.Contains(lower, "summary") && strings.Contains(line, ":"):
			currentSection = "summary"
			data.Summary = strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
		case strings.Contains(lower, "key points") || strings.Contains(lower, "points"):
			currentSection = "key_points"
		case strings.Contains(lower, "companies"):
			currentSection = "companies"
		case strings.Contains(lower, "sector"):
			currentSection = "sector"
			if strings.Contains(line, ":") {
				data.Sector = strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
			}
		case currentSection == "key_points" && (strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•")):
			data.KeyPoints = append(data.KeyPoints, strings.TrimSpace(strings.TrimLeft(line, "-•")))
		case currentSection == "companies" && (strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•")):
			data.Companies = append(data.Companies, strings.TrimSpace(strings.TrimLeft(line, "-•")))
		}
	}

	if data.Summary == "" {
		sector := data.Sector
		if sector == "" {
			sector = "business"
		}
		data.Summary = fmt.Sprintf("Recent %s deal with potential market impact.", sector)
	}

	return data
}

// createFallbackSummary builds a deterministic summary when the API fails.
func createFallbackSummary(deal Deal) SummarizedDeal {
	infof("creating fallback summary for '%s'", truncateString(deal.Title, 50))

	typeSummaries := map[string]string{
		"VC":  "Venture capital funding round for growth and expansion.",
		"M&A": "Merger and acquisition transaction to combine business operations.",
		"IPO": "Initial public offering to raise capital through public markets.",
		"IB":  "Investment banking transaction for capital raising or advisory services.",
	}

	summary, ok := typeSummaries[deal.DealType]
	if !ok {
		summary = "Significant financial transaction with market implications."
	}
	if deal.Amount != "" {
		summary = deal.Amount + " " + summary
	}

	keyPoints := []string{
		"Deal Type: " + deal.DealType,
		"Source: " + deal.Source,
		"Date: " + deal.Date,
	}
	if deal.Amount != "" {
		keyPoints = append(keyPoints[:1], append([]string{"Amount: " + deal.Amount}, keyPoints[1:]...)...)
	}

	return SummarizedDeal{
		Title:         deal.Title,
		Description:   deal.Description,
		AISummary:     summary,
		KeyPoints:     keyPoints,
		Source:        deal.Source,
		URL:           deal.URL,
		Date:          deal.Date,
		DealType:      deal.DealType,
		Amount:        deal.Amount,
		PriorityScore: deal.PriorityScore,
	}
}

// FallbackSummaries summarizes deals without calling the API at all.
// Used when summarization is disabled or no API key is configured.
func FallbackSummaries(deals []Deal) []SummarizedDeal {
	out := make([]SummarizedDeal, 0, len(deals))
	for _, d := range deals {
		out = append(out, createFallbackSummary(d))
	}
	return out
}

// waitForRateLimit enforces the per-minute window and per-request spacing.
func (s *Summarizer) waitForRateLimit() {
	now := time.Now()

	// Reset the window every minute.
	if now.Sub(s.minuteStart) >= time.Minute {
		s.requestCount = 0
		s.minuteStart = now
	}

	if s.requestCount >= requestsPerMinute {
		sleep := time.Minute - now.Sub(s.minuteStart)
		if sleep > 0 {
			infof("rate limit reached, sleeping %.1fs", sleep.Seconds())
			time.Sleep(sleep)
		}
		s.requestCount = 0
		s.minuteStart = time.Now()
		now = s.minuteStart
	}

	if gap := now.Sub(s.lastRequest); gap < minRequestInterval {
		time.Sleep(minRequestInterval - gap)
	}

	s.requestCount++
	s.lastRequest = time.Now()
}
