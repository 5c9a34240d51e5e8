package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func linkedIssuesServer(t *testing.T, response string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Unexpected Authorization header: %q", auth)
		}

		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Variables["number"] != float64(42) {
			t.Errorf("Expected number variable 42, got %v", req.Variables["number"])
		}

		w.WriteHeader(status)
		if _, err := w.Write([]byte(response)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
}

func TestLinkedIssues(t *testing.T) {
	response := `{
		"data": {
			"repository": {
				"pullRequest": {
					"closingIssuesReferences": {
						"nodes": [
							{"number": 7, "repository": {"name": "widgets", "owner": {"login": "acme"}}},
							{"number": 3, "repository": {"name": "other", "owner": {"login": "acme"}}}
						]
					}
				}
			}
		}
	}`
	srv := linkedIssuesServer(t, response, http.StatusOK)
	defer srv.Close()

	client := NewGraphQLClient(srv.Client(), "test-token")
	client.endpoint = srv.URL

	linked, err := client.LinkedIssues(context.Background(), "acme", "widgets", 42)
	if err != nil {
		t.Fatalf("LinkedIssues failed: %v", err)
	}

	if len(linked) != 2 {
		t.Fatalf("Expected 2 linked issues, got %d", len(linked))
	}
	if linked[0].Number != 7 || linked[0].Owner != "acme" || linked[0].Repo != "widgets" {
		t.Errorf("Unexpected first link: %+v", linked[0])
	}
	if linked[1].Repo != "other" {
		t.Errorf("Unexpected second link: %+v", linked[1])
	}
}

func TestLinkedIssuesEmpty(t *testing.T) {
	response := `{"data": {"repository": {"pullRequest": {"closingIssuesReferences": {"nodes": []}}}}}`
	srv := linkedIssuesServer(t, response, http.StatusOK)
	defer srv.Close()

	client := NewGraphQLClient(srv.Client(), "test-token")
	client.endpoint = srv.URL

	linked, err := client.LinkedIssues(context.Background(), "acme", "widgets", 42)
	if err != nil {
		t.Fatalf("LinkedIssues failed: %v", err)
	}
	if len(linked) != 0 {
		t.Errorf("Expected no linked issues, got %v", linked)
	}
}

func TestLinkedIssuesNotFound(t *testing.T) {
	response := `{"errors": [{"message": "Could not resolve to a PullRequest", "type": "NOT_FOUND"}]}`
	srv := linkedIssuesServer(t, response, http.StatusOK)
	defer srv.Close()

	client := NewGraphQLClient(srv.Client(), "test-token")
	client.endpoint = srv.URL

	_, err := client.LinkedIssues(context.Background(), "acme", "widgets", 42)
	if err == nil {
		t.Fatal("Expected error for NOT_FOUND response")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected not-found classification, got %v", err)
	}
}

func TestLinkedIssuesServerError(t *testing.T) {
	srv := linkedIssuesServer(t, `{"message": "boom"}`, http.StatusBadGateway)
	defer srv.Close()

	client := NewGraphQLClient(srv.Client(), "test-token")
	client.endpoint = srv.URL

	_, err := client.LinkedIssues(context.Background(), "acme", "widgets", 42)
	if err == nil {
		t.Fatal("Expected error for 502 response")
	}
	if !IsTransient(err) {
		t.Errorf("Expected transient classification, got %v", err)
	}
}
