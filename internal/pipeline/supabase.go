// =============================================================================
// supabase.go - subscriber store (Supabase PostgREST)
// =============================================================================
//
// Thin client over the Supabase REST endpoint for the ma_subscribers table.
// No SDK: plain net/http against /rest/v1 with the service-role key in both
// the apikey header and the Authorization bearer, which is what PostgREST
// expects.
//
// Required environment (when constructed via NewSubscriberStoreFromEnv):
//
//	SUPABASE_URL              - project base URL (https://xyz.supabase.co)
//	SUPABASE_SERVICE_ROLE_KEY - service role key
//
// =============================================================================
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const subscribersTable = "ma_subscribers"

// SubscriberStore manages newsletter subscribers in Supabase.
type SubscriberStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSubscriberStore creates a store for an explicit endpoint and key.
func NewSubscriberStore(baseURL, apiKey string) (*SubscriberStore, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("supabase url and service role key are required")
	}
	return &SubscriberStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NewSubscriberStoreFromEnv creates a store from SUPABASE_URL and
// SUPABASE_SERVICE_ROLE_KEY.
func NewSubscriberStoreFromEnv() (*SubscriberStore, error) {
	return NewSubscriberStore(os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_SERVICE_ROLE_KEY"))
}

// newRequest builds a PostgREST request with auth headers set.
func (s *SubscriberStore) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, s.baseURL+"/rest/v1/"+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ActiveSubscribers returns the email addresses of all subscribers that
// have not unsubscribed.
func (s *SubscriberStore) ActiveSubscribers() ([]string, error) {
	req, err := s.newRequest("GET", subscribersTable+"?select=email&unsubscribed=eq.false", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching subscribers: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase select error: %s\n%s", resp.Status, string(b))
	}

	var rows []struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parsing subscriber rows: %w", err)
	}

	emails := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Email != "" {
			emails = append(emails, r.Email)
		}
	}

	infof("fetched %d active subscribers", len(emails))
	return emails, nil
}

// AddSubscriber inserts a subscriber. A duplicate email is logged and
// treated as success.
func (s *SubscriberStore) AddSubscriber(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	payload := map[string]any{
		"email":       email,
		"date_joined": time.Now().Format(time.RFC3339),
		"verified":    true,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := s.newRequest("POST", subscribersTable, bytes.NewReader(b))
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("adding subscriber: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusConflict || strings.Contains(string(body), "duplicate key") {
		warnf("subscriber %s already exists, skipping", email)
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("supabase insert error: %s\n%s", resp.Status, string(body))
	}

	infof("added subscriber %s", email)
	return nil
}

// RemoveSubscriber deletes a subscriber row by email.
func (s *SubscriberStore) RemoveSubscriber(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	req, err := s.newRequest("DELETE", subscribersTable+"?email=eq."+url.QueryEscape(email), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("removing subscriber: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase delete error: %s\n%s", resp.Status, string(b))
	}

	infof("removed subscriber %s", email)
	return nil
}

// CountActiveSubscribers returns the number of active subscribers using
// PostgREST's exact-count header.
func (s *SubscriberStore) CountActiveSubscribers() (int, error) {
	req, err := s.newRequest("GET", subscribersTable+"?select=id&unsubscribed=eq.false", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("Range", "0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("counting subscribers: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("supabase count error: %s", resp.Status)
	}

	// Content-Range looks like "0-24/25"; the total follows the slash.
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, fmt.Errorf("missing Content-Range header in count response")
	}
	count, err := strconv.Atoi(cr[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("parsing Content-Range %q: %w", cr, err)
	}
	return count, nil
}

// Ping verifies connectivity and credentials with a minimal select.
func (s *SubscriberStore) Ping() error {
	req, err := s.newRequest("GET", subscribersTable+"?select=id&limit=1", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase ping: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("supabase ping failed: %s", resp.Status)
	}
	return nil
}
