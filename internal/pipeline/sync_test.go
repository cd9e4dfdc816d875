package pipeline

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeDiff(t *testing.T) {
	tests := []struct {
		name       string
		supabase   []string
		resend     []string
		wantAdd    []string
		wantRemove []string
		wantInBoth int
	}{
		{
			name:       "both empty",
			supabase:   nil,
			resend:     nil,
			wantAdd:    nil,
			wantRemove: nil,
			wantInBoth: 0,
		},
		{
			name:       "resend empty",
			supabase:   []string{"a@example.com", "b@example.com"},
			resend:     nil,
			wantAdd:    []string{"a@example.com", "b@example.com"},
			wantRemove: nil,
			wantInBoth: 0,
		},
		{
			name:       "supabase empty",
			supabase:   nil,
			resend:     []string{"stale@example.com"},
			wantAdd:    nil,
			wantRemove: []string{"stale@example.com"},
			wantInBoth: 0,
		},
		{
			name:       "already in sync",
			supabase:   []string{"a@example.com", "b@example.com"},
			resend:     []string{"b@example.com", "a@example.com"},
			wantAdd:    nil,
			wantRemove: nil,
			wantInBoth: 2,
		},
		{
			name:       "mixed",
			supabase:   []string{"a@example.com", "b@example.com", "c@example.com"},
			resend:     []string{"b@example.com", "d@example.com"},
			wantAdd:    []string{"a@example.com", "c@example.com"},
			wantRemove: []string{"d@example.com"},
			wantInBoth: 1,
		},
		{
			name:       "case and whitespace insensitive",
			supabase:   []string{"  A@Example.com "},
			resend:     []string{"a@example.com"},
			wantAdd:    nil,
			wantRemove: nil,
			wantInBoth: 1,
		},
		{
			name:       "duplicates collapse",
			supabase:   []string{"a@example.com", "A@EXAMPLE.COM"},
			resend:     nil,
			wantAdd:    []string{"a@example.com"},
			wantRemove: nil,
			wantInBoth: 0,
		},
		{
			name:       "empty strings ignored",
			supabase:   []string{"", "a@example.com"},
			resend:     []string{""},
			wantAdd:    []string{"a@example.com"},
			wantRemove: nil,
			wantInBoth: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeDiff(tt.supabase, tt.resend)
			if diff := cmp.Diff(tt.wantAdd, got.toAdd); diff != "" {
				t.Errorf("toAdd mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRemove, got.toRemove); diff != "" {
				t.Errorf("toRemove mismatch (-want +got):\n%s", diff)
			}
			if got.inBoth != tt.wantInBoth {
				t.Errorf("inBoth = %d, want %d", got.inBoth, tt.wantInBoth)
			}
		})
	}
}

func TestAudienceSync(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"email": "keep@example.com"},
			{"email": "add@example.com"},
		})
	})

	var added, removed []string
	resend := newTestResendClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET":
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "1", "email": "keep@example.com"},
					{"id": "2", "email": "stale@example.com"},
				},
			})
		case r.Method == "POST":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			added = append(added, body["email"].(string))
			w.Write([]byte(`{"id":"new"}`))
		case r.Method == "DELETE":
			parts := strings.Split(r.URL.Path, "/")
			removed = append(removed, parts[len(parts)-1])
			w.Write([]byte(`{}`))
		}
	})

	results, err := AudienceSync(store, resend)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"add@example.com"}, results.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stale@example.com"}, results.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}
	if results.Unchanged != 1 {
		t.Errorf("Unchanged = %d, want 1", results.Unchanged)
	}
	if len(results.Errors) != 0 {
		t.Errorf("Errors = %v, want none", results.Errors)
	}
	if diff := cmp.Diff([]string{"add@example.com"}, added); diff != "" {
		t.Errorf("contacts created (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"stale@example.com"}, removed); diff != "" {
		t.Errorf("contacts deleted (-want +got):\n%s", diff)
	}
}

func TestCheckSyncStatus(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"email": "a@example.com"},
			{"email": "b@example.com"},
		})
	})
	resend := newTestResendClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "1", "email": "a@example.com"},
			},
		})
	})

	status, err := CheckSyncStatus(store, resend)
	if err != nil {
		t.Fatal(err)
	}
	if status.SupabaseCount != 2 || status.ResendCount != 1 || status.InSyncCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", status.SupabaseCount, status.ResendCount, status.InSyncCount)
	}
	if status.SyncPercentage != 50.0 {
		t.Errorf("SyncPercentage = %v, want 50.0", status.SyncPercentage)
	}
	if diff := cmp.Diff([]string{"b@example.com"}, status.OnlySupabase); diff != "" {
		t.Errorf("OnlySupabase mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDiffDeterministic(t *testing.T) {
	supabase := []string{"c@example.com", "a@example.com", "b@example.com"}

	first := computeDiff(supabase, nil)
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	if diff := cmp.Diff(want, first.toAdd); diff != "" {
		t.Errorf("toAdd not sorted (-want +got):\n%s", diff)
	}
}
