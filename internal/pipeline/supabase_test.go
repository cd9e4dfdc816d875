package pipeline

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *SubscriberStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewSubscriberStore(srv.URL, "test-key")
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestNewSubscriberStoreValidation(t *testing.T) {
	if _, err := NewSubscriberStore("", "key"); err == nil {
		t.Error("NewSubscriberStore should fail without a URL")
	}
	if _, err := NewSubscriberStore("https://x.supabase.co", ""); err == nil {
		t.Error("NewSubscriberStore should fail without a key")
	}
}

func TestActiveSubscribers(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/ma_subscribers" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("select"); got != "email" {
			t.Errorf("select = %q, want email", got)
		}
		if got := r.URL.Query().Get("unsubscribed"); got != "eq.false" {
			t.Errorf("unsubscribed = %q, want eq.false", got)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("apikey header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]string{
			{"email": "a@example.com"},
			{"email": "b@example.com"},
			{"email": ""},
		})
	})

	got, err := store.ActiveSubscribers()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a@example.com", "b@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subscribers mismatch (-want +got):\n%s", diff)
	}
}

func TestActiveSubscribersError(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusUnauthorized)
	})

	if _, err := store.ActiveSubscribers(); err == nil {
		t.Error("expected error on non-2xx response")
	}
}

func TestAddSubscriber(t *testing.T) {
	var gotBody map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	if err := store.AddSubscriber("  New@Example.COM "); err != nil {
		t.Fatal(err)
	}
	if gotBody["email"] != "new@example.com" {
		t.Errorf("email = %v, want normalized new@example.com", gotBody["email"])
	}
	if gotBody["verified"] != true {
		t.Errorf("verified = %v, want true", gotBody["verified"])
	}
	if gotBody["date_joined"] == "" {
		t.Error("date_joined missing")
	}
}

func TestAddSubscriberDuplicateIsSuccess(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	if err := store.AddSubscriber("dup@example.com"); err != nil {
		t.Errorf("duplicate insert should be treated as success, got %v", err)
	}
}

func TestAddSubscriberEmptyEmail(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {})
	if err := store.AddSubscriber("   "); err == nil {
		t.Error("empty email should be rejected")
	}
}

func TestRemoveSubscriber(t *testing.T) {
	var gotQuery string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "DELETE" {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})

	if err := store.RemoveSubscriber("Gone@Example.com"); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "email=eq.gone%40example.com" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestCountActiveSubscribers(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Prefer"); got != "count=exact" {
			t.Errorf("Prefer header = %q", got)
		}
		w.Header().Set("Content-Range", "0-0/42")
		w.WriteHeader(http.StatusPartialContent)
	})

	got, err := store.CountActiveSubscribers()
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("count = %d, want 42", got)
	}
}

func TestCountActiveSubscribersMissingHeader(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if _, err := store.CountActiveSubscribers(); err == nil {
		t.Error("expected error when Content-Range is missing")
	}
}

func TestPing(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})
	if err := store.Ping(); err != nil {
		t.Errorf("Ping() = %v", err)
	}

	failing := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	if err := failing.Ping(); err == nil {
		t.Error("Ping should fail on 5xx")
	}
}
