// =============================================================================
// resend.go - newsletter delivery via the Resend API
// =============================================================================
//
// Sends the rendered newsletter to each subscriber individually through
// POST /emails, batching the recipient list in groups of 50 with a short
// pause between sends, and manages contacts in a Resend audience for the
// Supabase reconciliation in sync.go.
//
// Each send carries a UUID Idempotency-Key so a retried request cannot
// double-deliver.
//
// Required environment (when constructed via NewResendClientFromEnv):
//
//	RESEND_API_KEY - API key
//	SENDER_EMAIL   - verified sender address
//
// Optional:
//
//	SENDER_NAME        - display name (default "Finance Newsletter")
//	REPLY_TO_EMAIL     - reply-to address
//	RESEND_AUDIENCE_ID - audience for contact sync
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

	"github.com/google/uuid"
)

const (
	resendAPIBase     = "https://api.resend.com"
	sendBatchSize     = 50
	sendPacing        = 500 * time.Millisecond
	defaultSenderName = "Finance Newsletter"

	// Audience used when RESEND_AUDIENCE_ID is not set.
	defaultAudienceID = "be4260f0-3872-4164-aa96-60e5aad08f0f"
)

// ResendClient sends newsletters and manages audience contacts.
type ResendClient struct {
	apiKey      string
	senderEmail string
	senderName  string
	replyTo     string
	audienceID  string
	baseURL     string
	client      *http.Client
}

// NewResendClient creates a client with explicit credentials.
func NewResendClient(apiKey, senderEmail string) (*ResendClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required")
	}
	if senderEmail == "" {
		return nil, fmt.Errorf("SENDER_EMAIL is required")
	}
	return &ResendClient{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  defaultSenderName,
		audienceID:  defaultAudienceID,
		baseURL:     resendAPIBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NewResendClientFromEnv creates a client from environment variables.
func NewResendClientFromEnv() (*ResendClient, error) {
	c, err := NewResendClient(os.Getenv("RESEND_API_KEY"), os.Getenv("SENDER_EMAIL"))
	if err != nil {
		return nil, err
	}
	if name := os.Getenv("SENDER_NAME"); name != "" {
		c.senderName = name
	}
	c.replyTo = os.Getenv("REPLY_TO_EMAIL")
	if id := os.Getenv("RESEND_AUDIENCE_ID"); id != "" {
		c.audienceID = id
	}
	return c, nil
}

// newRequest builds an authenticated Resend API request.
func (c *ResendClient) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

// SendNewsletter delivers the newsletter to every recipient, one email per
// subscriber, batched with pacing. Per-recipient failures are recorded in
// the results, never aborting the run.
func (c *ResendClient) SendNewsletter(recipients []string, subject, htmlBody, textBody string) []EmailResult {
	infof("sending newsletter to %d recipients", len(recipients))

	results := make([]EmailResult, 0, len(recipients))

	for start := 0; start < len(recipients); start += sendBatchSize {
		end := start + sendBatchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[start:end]
		infof("sending batch %d-%d of %d", start+1, end, len(recipients))

		for _, recipient := range batch {
			result := c.sendOne(recipient, subject, htmlBody, textBody)
			if result.Success {
				infof("sent to %s (id %s)", recipient, result.MessageID)
			} else {
				errorf("send to %s failed: %s", recipient, result.Error)
			}
			results = append(results, result)

			time.Sleep(sendPacing)
		}
	}

	sent := 0
	for _, r := range results {
		if r.Success {
			sent++
		}
	}
	infof("newsletter send complete: %d sent, %d failed", sent, len(results)-sent)

	return results
}

// sendOne sends a single email and reports the outcome.
func (c *ResendClient) sendOne(recipient, subject, htmlBody, textBody string) EmailResult {
	payload := sendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.senderName, c.senderEmail),
		To:      []string{recipient},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
		ReplyTo: c.replyTo,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return EmailResult{Recipient: recipient, Error: err.Error()}
	}

	req, err := c.newRequest("POST", "/emails", bytes.NewReader(b))
	if err != nil {
		return EmailResult{Recipient: recipient, Error: err.Error()}
	}
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return EmailResult{Recipient: recipient, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return EmailResult{
			Recipient: recipient,
			Error:     fmt.Sprintf("resend error: %s: %s", resp.Status, truncateString(string(body), 200)),
		}
	}

	var r sendEmailResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return EmailResult{Recipient: recipient, Error: "failed to parse send response: " + err.Error()}
	}

	return EmailResult{Success: true, MessageID: r.ID, Recipient: recipient}
}

// ----------------------------------------------------------------------------
// Audience contacts
// ----------------------------------------------------------------------------

type resendContact struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
}

type listContactsResponse struct {
	Data []resendContact `json:"data"`
}

// AudienceContacts lists all contacts in the configured audience.
func (c *ResendClient) AudienceContacts() ([]string, error) {
	req, err := c.newRequest("GET", "/audiences/"+c.audienceID+"/contacts", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing audience contacts: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("resend contacts error: %s\n%s", resp.Status, string(b))
	}

	var r listContactsResponse
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parsing contacts response: %w", err)
	}

	emails := make([]string, 0, len(r.Data))
	for _, contact := range r.Data {
		if contact.Email != "" {
			emails = append(emails, contact.Email)
		}
	}

	infof("fetched %d audience contacts", len(emails))
	return emails, nil
}

// AddContact adds an email to the audience. An already-existing contact is
// treated as success.
func (c *ResendClient) AddContact(email string) error {
	payload := map[string]any{
		"email":        strings.ToLower(strings.TrimSpace(email)),
		"unsubscribed": false,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := c.newRequest("POST", "/audiences/"+c.audienceID+"/contacts", bytes.NewReader(b))
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("adding contact %s: %w", email, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusConflict || strings.Contains(string(body), "already exists") {
		warnf("contact %s already exists in audience", email)
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend add contact error: %s\n%s", resp.Status, string(body))
	}
	return nil
}

// RemoveContact deletes a contact from the audience by email. A missing
// contact is treated as success.
func (c *ResendClient) RemoveContact(email string) error {
	req, err := c.newRequest("DELETE", "/audiences/"+c.audienceID+"/contacts/"+strings.ToLower(strings.TrimSpace(email)), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("removing contact %s: %w", email, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		warnf("contact %s not found in audience", email)
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend remove contact error: %s", resp.Status)
	}
	return nil
}
