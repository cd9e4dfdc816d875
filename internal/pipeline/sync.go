// =============================================================================
// sync.go - Supabase <-> Resend audience reconciliation
// =============================================================================
//
// Supabase is the source of truth for subscribers; the Resend audience is a
// mirror. Sync computes the set difference between the two (case-insensitive
// on email) and adds or removes Resend contacts to converge. Individual
// contact failures are collected, never fatal.
//
// =============================================================================
package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SyncResults summarizes one reconciliation run.
type SyncResults struct {
	Added     []string `json:"added"`     // contacts created in Resend
	Removed   []string `json:"removed"`   // contacts deleted from Resend
	Unchanged int      `json:"unchanged"` // emails already present on both sides
	Errors    []string `json:"errors,omitempty"`
}

// SyncStatus is a read-only comparison of the two sides.
type SyncStatus struct {
	SupabaseCount  int      `json:"supabaseCount"`
	ResendCount    int      `json:"resendCount"`
	InSyncCount    int      `json:"inSyncCount"`
	OnlySupabase   []string `json:"onlySupabase,omitempty"`
	OnlyResend     []string `json:"onlyResend,omitempty"`
	SyncPercentage float64  `json:"syncPercentage"`
}

// syncDiff is the pure diff between the subscriber list and the audience.
type syncDiff struct {
	toAdd    []string // in Supabase, missing from Resend
	toRemove []string // in Resend, missing from Supabase
	inBoth   int
}

// computeDiff lowercases both sides and returns a deterministic
// (sorted) diff.
func computeDiff(supabaseEmails, resendEmails []string) syncDiff {
	supabase := toEmailSet(supabaseEmails)
	resend := toEmailSet(resendEmails)

	var diff syncDiff
	for email := range supabase {
		if resend[email] {
			diff.inBoth++
		} else {
			diff.toAdd = append(diff.toAdd, email)
		}
	}
	for email := range resend {
		if !supabase[email] {
			diff.toRemove = append(diff.toRemove, email)
		}
	}

	sort.Strings(diff.toAdd)
	sort.Strings(diff.toRemove)
	return diff
}

func toEmailSet(emails []string) map[string]bool {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = true
		}
	}
	return set
}

// AudienceSync reconciles the Resend audience against Supabase subscribers.
func AudienceSync(store *SubscriberStore, resend *ResendClient) (SyncResults, error) {
	supabaseEmails, err := store.ActiveSubscribers()
	if err != nil {
		return SyncResults{}, fmt.Errorf("sync: %w", err)
	}

	resendEmails, err := resend.AudienceContacts()
	if err != nil {
		return SyncResults{}, fmt.Errorf("sync: %w", err)
	}

	diff := computeDiff(supabaseEmails, resendEmails)
	infof("sync plan: %d to add, %d to remove, %d unchanged", len(diff.toAdd), len(diff.toRemove), diff.inBoth)

	results := SyncResults{Unchanged: diff.inBoth}

	for _, email := range diff.toAdd {
		if err := resend.AddContact(email); err != nil {
			errorf("sync add %s: %v", email, err)
			results.Errors = append(results.Errors, fmt.Sprintf("add %s: %v", email, err))
			continue
		}
		results.Added = append(results.Added, email)
	}

	for _, email := range diff.toRemove {
		if err := resend.RemoveContact(email); err != nil {
			errorf("sync remove %s: %v", email, err)
			results.Errors = append(results.Errors, fmt.Sprintf("remove %s: %v", email, err))
			continue
		}
		results.Removed = append(results.Removed, email)
	}

	infof("sync complete: %d added, %d removed, %d unchanged, %d errors",
		len(results.Added), len(results.Removed), results.Unchanged, len(results.Errors))

	return results, nil
}

// CheckSyncStatus compares the two sides without modifying anything.
func CheckSyncStatus(store *SubscriberStore, resend *ResendClient) (SyncStatus, error) {
	supabaseEmails, err := store.ActiveSubscribers()
	if err != nil {
		return SyncStatus{}, fmt.Errorf("sync status: %w", err)
	}

	resendEmails, err := resend.AudienceContacts()
	if err != nil {
		return SyncStatus{}, fmt.Errorf("sync status: %w", err)
	}

	diff := computeDiff(supabaseEmails, resendEmails)

	supabaseCount := diff.inBoth + len(diff.toAdd)
	denom := supabaseCount
	if denom < 1 {
		denom = 1
	}
	pct := math.Round(float64(diff.inBoth)/float64(denom)*1000) / 10

	return SyncStatus{
		SupabaseCount:  supabaseCount,
		ResendCount:    diff.inBoth + len(diff.toRemove),
		InSyncCount:    diff.inBoth,
		OnlySupabase:   diff.toAdd,
		OnlyResend:     diff.toRemove,
		SyncPercentage: pct,
	}, nil
}
