// Package main is the prlink webhook server. It receives GitHub
// pull_request webhooks and runs the same check pipeline as the CLI.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/integrations/github"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
	"github.com/prlinkhq/prlink-bot/internal/steps"
)

var (
	cfg           *config.Config
	deps          *pipeline.Dependencies
	stepNames     []string
	webhookSecret string
)

// webhookPayload is the subset of the pull_request event the server needs.
type webhookPayload struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
}

// runResponse is returned for webhook and validate requests.
type runResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Status  string           `json:"status"`
	Error   string           `json:"error,omitempty"`
	Verdict *linkage.Verdict `json:"verdict,omitempty"`
	Action  *linkage.Action  `json:"action,omitempty"`
}

// validateRequest carries a snapshot to evaluate without touching GitHub.
type validateRequest struct {
	PR     linkage.PRSnapshot      `json:"pr"`
	Issues []linkage.IssueSnapshot `json:"issues,omitempty"`
}

func main() {
	dryRunFlag := flag.Bool("dry-run", false, "Decide and log enforcement without executing it")
	flag.Parse()

	dryRun := *dryRunFlag || strings.EqualFold(os.Getenv("DRY_RUN"), "true")
	webhookSecret = os.Getenv("WEBHOOK_SECRET")

	// Load configuration
	cfgPath := config.FindConfigPath("")
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			log.Printf("Warning: Failed to load config: %v", err)
			cfg = config.New()
		} else {
			cfg = loaded
		}
	} else {
		cfg = config.New()
	}
	cfg.ApplyActionInputs()

	deps = &pipeline.Dependencies{DryRun: dryRun}
	if cfg.Auth.Token != "" {
		deps.Host = github.NewService(context.Background(), cfg.Auth.Token)
	} else {
		log.Printf("Warning: no GitHub token configured; only /api/validate will work")
	}

	stepNames = pipeline.ResolveSteps(cfg.Steps, cfg.Workflow)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", handleHealth)
	r.Post("/api/validate", handleValidate)
	r.Post("/webhook", handleWebhook)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("prlink-web listening on :%s (dry-run: %t)\n", port, dryRun)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, runResponse{Status: "error", Error: "failed to read body"})
		return
	}

	if webhookSecret != "" {
		if !verifySignature(webhookSecret, body, r.Header.Get("X-Hub-Signature")) {
			writeJSON(w, http.StatusUnauthorized, runResponse{Status: "error", Error: "invalid signature"})
			return
		}
	}

	switch event := r.Header.Get("X-GitHub-Event"); event {
	case "ping":
		writeJSON(w, http.StatusOK, runResponse{Status: "pong"})
		return
	case "pull_request":
	default:
		// Acknowledge everything else so GitHub does not retry.
		writeJSON(w, http.StatusOK, runResponse{Status: "ignored"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, runResponse{Status: "error", Error: "invalid payload: " + err.Error()})
		return
	}

	parts := strings.SplitN(payload.Repository.FullName, "/", 2)
	if len(parts) != 2 || payload.PullRequest.Number <= 0 {
		writeJSON(w, http.StatusBadRequest, runResponse{Status: "error", Error: "payload missing repository or PR number"})
		return
	}

	if deps.Host == nil {
		writeJSON(w, http.StatusServiceUnavailable, runResponse{Status: "error", Error: "no GitHub token configured"})
		return
	}

	id := linkage.PRIdentifier{Owner: parts[0], Repo: parts[1], Number: payload.PullRequest.Number}
	pCtx := pipeline.NewContext(r.Context(), id, payload.Action, cfg)

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	p, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, runResponse{Status: "error", Error: err.Error()})
		return
	}

	if err := p.Run(pCtx); err != nil {
		log.Printf("[webhook] run %s failed: %v", pCtx.Result.RunID, err)
		writeJSON(w, http.StatusInternalServerError, runResponse{
			RunID:  pCtx.Result.RunID,
			Status: "error",
			Error:  err.Error(),
		})
		return
	}

	status := "checked"
	if pCtx.Result.Skipped {
		status = "skipped"
	}
	writeJSON(w, http.StatusOK, runResponse{
		RunID:   pCtx.Result.RunID,
		Status:  status,
		Verdict: pCtx.Result.Verdict,
		Action:  pCtx.Result.Action,
	})
}

// handleValidate evaluates a caller-supplied snapshot without touching
// GitHub. Useful for testing policies before enabling enforcement.
func handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, runResponse{Status: "error", Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.PR.Author == "" {
		writeJSON(w, http.StatusBadRequest, runResponse{Status: "error", Error: "pr.author is required"})
		return
	}

	issues := make(map[int]*linkage.IssueSnapshot, len(req.Issues))
	for i := range req.Issues {
		issues[req.Issues[i].Number] = &req.Issues[i]
	}
	fetcher := linkage.FetchIssueFunc(func(ctx context.Context, ref linkage.IssueRef) (*linkage.IssueSnapshot, error) {
		issue, ok := issues[ref.Number]
		if !ok {
			return nil, fmt.Errorf("issue %s not supplied in request", ref)
		}
		return issue, nil
	})

	evaluator := linkage.NewEvaluator(cfg, fetcher)
	verdict, err := evaluator.Evaluate(r.Context(), &req.PR)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, runResponse{Status: "error", Error: err.Error()})
		return
	}

	action := linkage.Dispatch(cfg, &req.PR, verdict)
	writeJSON(w, http.StatusOK, runResponse{
		Status:  "evaluated",
		Verdict: verdict,
		Action:  &action,
	})
}

// verifySignature checks GitHub's HMAC-SHA1 webhook signature.
func verifySignature(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, "sha1=") {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	expected := "sha1=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(header))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
