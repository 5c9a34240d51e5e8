package main

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"action": "opened"}`)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", sign(secret, body), true},
		{"wrong secret", sign("other", body), false},
		{"missing prefix", "deadbeef", false},
		{"empty header", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifySignature(secret, body, tt.header); got != tt.want {
				t.Errorf("verifySignature = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealth(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestHandleValidate(t *testing.T) {
	cfg = config.New()
	cfg.Policy.CheckIssueReference = true

	body := `{"pr": {"owner": "acme", "repo": "widgets", "number": 1, "author": "alice", "description": "Fixes #9"}}`
	rec := httptest.NewRecorder()
	handleValidate(rec, httptest.NewRequest("POST", "/api/validate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Verdict == nil || resp.Verdict.Outcome != linkage.OutcomePass {
		t.Errorf("Expected pass verdict, got %+v", resp.Verdict)
	}
	if resp.Action == nil || resp.Action.Kind != linkage.ActionNoOp {
		t.Errorf("Expected noop action, got %+v", resp.Action)
	}
}

func TestHandleValidateFailure(t *testing.T) {
	cfg = config.New()

	body := `{"pr": {"owner": "acme", "repo": "widgets", "number": 1, "author": "alice"}}`
	rec := httptest.NewRecorder()
	handleValidate(rec, httptest.NewRequest("POST", "/api/validate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Verdict == nil || resp.Verdict.Outcome != linkage.OutcomeFailNoIssue {
		t.Errorf("Expected fail_no_issue, got %+v", resp.Verdict)
	}
	if resp.Action == nil || resp.Action.Kind != linkage.ActionClosePR {
		t.Errorf("Expected close_pr action, got %+v", resp.Action)
	}
}

func TestHandleValidateWithAssignees(t *testing.T) {
	cfg = config.New()
	cfg.Policy.RequireAssignee = true

	body := `{
		"pr": {"owner": "acme", "repo": "widgets", "number": 1, "author": "alice", "linked_issues": [{"number": 7}]},
		"issues": [{"number": 7, "assignees": ["alice"]}]
	}`
	rec := httptest.NewRecorder()
	handleValidate(rec, httptest.NewRequest("POST", "/api/validate", strings.NewReader(body)))

	var resp runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Verdict == nil || resp.Verdict.Outcome != linkage.OutcomePass {
		t.Errorf("Expected pass, got %+v", resp.Verdict)
	}
}

func TestHandleValidateMissingAuthor(t *testing.T) {
	cfg = config.New()

	rec := httptest.NewRecorder()
	handleValidate(rec, httptest.NewRequest("POST", "/api/validate", strings.NewReader(`{"pr": {}}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestHandleWebhookBadSignature(t *testing.T) {
	cfg = config.New()
	webhookSecret = "s3cret"
	defer func() { webhookSecret = "" }()

	body := `{"action": "opened"}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req.Header.Set("X-Hub-Signature", "sha1=bogus")
	req.Header.Set("X-GitHub-Event", "pull_request")

	rec := httptest.NewRecorder()
	handleWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestHandleWebhookPing(t *testing.T) {
	cfg = config.New()
	webhookSecret = ""

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{"zen": "keep it simple"}`))
	req.Header.Set("X-GitHub-Event", "ping")

	rec := httptest.NewRecorder()
	handleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pong") {
		t.Errorf("Expected pong, got %s", rec.Body.String())
	}
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	cfg = config.New()
	webhookSecret = ""

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-GitHub-Event", "issues")

	rec := httptest.NewRecorder()
	handleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Errorf("Expected ignored status, got %s", rec.Body.String())
	}
}
