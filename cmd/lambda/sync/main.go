// =============================================================================
// Lambda: audience-sync
// =============================================================================
//
// Reconciles the Resend audience with the Supabase subscriber table.
// Intended to run on a daily EventBridge schedule, independently of the
// weekly newsletter.
//
// Environment:
//   - SUPABASE_URL:              Supabase project URL (required)
//   - SUPABASE_SERVICE_ROLE_KEY: Supabase service role key (required)
//   - RESEND_API_KEY:            Resend API key (required)
//   - SENDER_EMAIL:              verified sender address (required)
//   - RESEND_AUDIENCE_ID:        audience to sync (optional)
//   - CHECK_ONLY:                "true" to report status without changes
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"deal-relay/internal/pipeline"
)

// Response is the Lambda response payload.
type Response struct {
	StatusCode int                   `json:"statusCode"`
	Message    string                `json:"message"`
	Results    *pipeline.SyncResults `json:"results,omitempty"`
	Status     *pipeline.SyncStatus  `json:"status,omitempty"`
}

// Handler runs one reconciliation (or a dry status check).
func Handler(ctx context.Context, event interface{}) (Response, error) {
	log.Println("Starting audience-sync Lambda...")

	store, err := pipeline.NewSubscriberStoreFromEnv()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}
	resend, err := pipeline.NewResendClientFromEnv()
	if err != nil {
		return Response{StatusCode: 400, Message: err.Error()}, err
	}

	if os.Getenv("CHECK_ONLY") == "true" {
		status, err := pipeline.CheckSyncStatus(store, resend)
		if err != nil {
			log.Printf("Error checking sync status: %v", err)
			return Response{StatusCode: 500, Message: err.Error()}, err
		}

		log.Printf("Sync status: %d supabase, %d resend, %.1f%% in sync",
			status.SupabaseCount, status.ResendCount, status.SyncPercentage)

		return Response{
			StatusCode: 200,
			Message:    fmt.Sprintf("%.1f%% in sync (%d supabase, %d resend)", status.SyncPercentage, status.SupabaseCount, status.ResendCount),
			Status:     &status,
		}, nil
	}

	results, err := pipeline.AudienceSync(store, resend)
	if err != nil {
		log.Printf("Error syncing audience: %v", err)
		return Response{StatusCode: 500, Message: err.Error()}, err
	}

	log.Printf("Sync complete: %d added, %d removed, %d unchanged, %d errors",
		len(results.Added), len(results.Removed), results.Unchanged, len(results.Errors))

	return Response{
		StatusCode: 200,
		Message: fmt.Sprintf("Synced audience: %d added, %d removed, %d unchanged",
			len(results.Added), len(results.Removed), results.Unchanged),
		Results: &results,
	}, nil
}

func main() {
	lambda.Start(Handler)
}
