package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func jobListBody(jobs ...map[string]any) map[string]any {
	return map[string]any{"jobs": jobs}
}

func TestJobsCommand_ListsQueue(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(jobListBody(
			map[string]any{
				"id":           "job-a",
				"status":       "pending",
				"attempts":     0,
				"maxAttempts":  5,
				"scheduledFor": time.Now().Add(-time.Minute),
				"payload":      map[string]string{"promptId": "prompt-1", "provider": "openai"},
			},
			map[string]any{
				"id":           "job-b",
				"status":       "failed",
				"attempts":     5,
				"maxAttempts":  5,
				"scheduledFor": time.Now().Add(-time.Hour),
				"error":        "provider timeout",
				"payload":      map[string]string{"promptId": "prompt-2", "provider": "anthropic"},
			},
		))
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("api_key", "test-key")

	output := execute(t, "jobs", "--status=", "--limit=20")
	if !strings.Contains(output, "job-a") || !strings.Contains(output, "job-b") {
		t.Errorf("expected both job IDs, got: %s", output)
	}
	if !strings.Contains(output, "pending") {
		t.Errorf("expected pending count in summary, got: %s", output)
	}
	if !strings.Contains(output, "provider timeout") {
		t.Errorf("expected error line for failed job, got: %s", output)
	}
	if !strings.Contains(output, "prompt-1") {
		t.Errorf("expected prompt reference, got: %s", output)
	}
}

func TestJobsCommand_PassesStatusFilter(t *testing.T) {
	resetViper()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(jobListBody())
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("api_key", "test-key")

	output := execute(t, "jobs", "--status=pending", "--limit=5")
	if !strings.Contains(gotQuery, "status=pending") {
		t.Errorf("expected status filter in query, got: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "limit=5") {
		t.Errorf("expected limit in query, got: %s", gotQuery)
	}
	if !strings.Contains(output, "No jobs found") {
		t.Errorf("expected empty message, got: %s", output)
	}
}

func TestJobsCommand_Unauthorized(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "unauthorized", "message": "Missing API key"},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("api_key", "")

	output := execute(t, "jobs", "--status=", "--limit=20")
	if !strings.Contains(output, "401") {
		t.Errorf("expected 401 in output, got: %s", output)
	}
	if !strings.Contains(output, "Missing API key") {
		t.Errorf("expected API message, got: %s", output)
	}
}
