package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
	"github.com/prlinkhq/prlink-bot/internal/steps"
)

// fakeHost is an in-memory pipeline.Host backed by fixed snapshots.
// It records the enforcement calls the pipeline makes.
type fakeHost struct {
	prs    map[int]*linkage.PRSnapshot
	issues map[int]*linkage.IssueSnapshot

	closed   []int
	comments []string
}

func (h *fakeHost) SnapshotPR(ctx context.Context, id linkage.PRIdentifier) (*linkage.PRSnapshot, error) {
	pr, ok := h.prs[id.Number]
	if !ok {
		return nil, fmt.Errorf("unknown PR %s", id)
	}
	return pr, nil
}

func (h *fakeHost) FetchIssue(ctx context.Context, base linkage.PRIdentifier, ref linkage.IssueRef) (*linkage.IssueSnapshot, error) {
	issue, ok := h.issues[ref.Number]
	if !ok {
		return nil, fmt.Errorf("unknown issue %s", ref)
	}
	return issue, nil
}

func (h *fakeHost) ClosePR(ctx context.Context, id linkage.PRIdentifier) error {
	h.closed = append(h.closed, id.Number)
	return nil
}

func (h *fakeHost) PostComment(ctx context.Context, id linkage.PRIdentifier, body string) error {
	h.comments = append(h.comments, body)
	return nil
}

func runCheck(t *testing.T, host *fakeHost, cfg *config.Config, number int, dryRun bool) *pipeline.Context {
	t.Helper()

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	stepNames := pipeline.ResolveSteps(nil, "pr-check")
	p, err := registry.BuildFromNames(stepNames, &pipeline.Dependencies{Host: host, DryRun: dryRun})
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}

	id := linkage.PRIdentifier{Owner: "acme", Repo: "widgets", Number: number}
	pCtx := pipeline.NewContext(context.Background(), id, "opened", cfg)

	if err := p.Run(pCtx); err != nil {
		t.Fatalf("Pipeline execution failed: %v", err)
	}
	return pCtx
}

func TestEndToEndUnlinkedPRClosed(t *testing.T) {
	host := &fakeHost{
		prs: map[int]*linkage.PRSnapshot{
			42: {
				Owner:       "acme",
				Repo:        "widgets",
				Number:      42,
				Author:      "alice",
				Description: "Refactors the widget cache.",
				BaseBranch:  "main",
				State:       "open",
			},
		},
	}

	pCtx := runCheck(t, host, config.New(), 42, false)

	if pCtx.Result.Verdict == nil || pCtx.Result.Verdict.Outcome != linkage.OutcomeFailNoIssue {
		t.Fatalf("Expected fail_no_issue verdict, got %+v", pCtx.Result.Verdict)
	}
	if len(host.comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(host.comments))
	}
	if host.comments[0] == "" {
		t.Error("Comment body should not be empty")
	}
	if len(host.closed) != 1 || host.closed[0] != 42 {
		t.Errorf("Expected PR 42 closed, got %v", host.closed)
	}
	if !pCtx.Result.PRClosed || !pCtx.Result.CommentPosted {
		t.Errorf("Result flags not set: %+v", pCtx.Result)
	}
}

func TestEndToEndLinkedPRPasses(t *testing.T) {
	cfg := config.New()
	cfg.Policy.CheckIssueReference = true
	cfg.Policy.RequireAssignee = true

	host := &fakeHost{
		prs: map[int]*linkage.PRSnapshot{
			7: {
				Owner:       "acme",
				Repo:        "widgets",
				Number:      7,
				Author:      "alice",
				Description: "Fixes #99 by rebuilding the index.",
				BaseBranch:  "main",
				State:       "open",
			},
		},
		issues: map[int]*linkage.IssueSnapshot{
			99: {Number: 99, Assignees: []string{"alice"}},
		},
	}

	pCtx := runCheck(t, host, cfg, 7, false)

	if pCtx.Result.Verdict == nil || pCtx.Result.Verdict.Outcome != linkage.OutcomePass {
		t.Fatalf("Expected pass verdict, got %+v", pCtx.Result.Verdict)
	}
	if len(host.closed) != 0 || len(host.comments) != 0 {
		t.Errorf("Pass verdict must not touch the PR: closed=%v comments=%v", host.closed, host.comments)
	}
}

func TestEndToEndDryRunDecidesWithoutActing(t *testing.T) {
	host := &fakeHost{
		prs: map[int]*linkage.PRSnapshot{
			13: {
				Owner:      "acme",
				Repo:       "widgets",
				Number:     13,
				Author:     "bob",
				BaseBranch: "main",
				State:      "open",
			},
		},
	}

	pCtx := runCheck(t, host, config.New(), 13, true)

	if pCtx.Result.Verdict == nil || !pCtx.Result.Verdict.Failed() {
		t.Fatalf("Expected failing verdict, got %+v", pCtx.Result.Verdict)
	}
	if pCtx.Result.Action == nil || pCtx.Result.Action.Kind != linkage.ActionClosePR {
		t.Fatalf("Expected close_pr action, got %+v", pCtx.Result.Action)
	}
	if len(host.closed) != 0 || len(host.comments) != 0 {
		t.Errorf("Dry run must not execute enforcement: closed=%v comments=%v", host.closed, host.comments)
	}
	if pCtx.Result.PRClosed || pCtx.Result.CommentPosted {
		t.Errorf("Dry run must not report enforcement as executed: %+v", pCtx.Result)
	}
}

func TestEndToEndBotAuthorSkipped(t *testing.T) {
	host := &fakeHost{
		prs: map[int]*linkage.PRSnapshot{
			8: {
				Owner:      "acme",
				Repo:       "widgets",
				Number:     8,
				Author:     "dependabot[bot]",
				IsBot:      true,
				BaseBranch: "main",
				State:      "open",
			},
		},
	}

	pCtx := runCheck(t, host, config.New(), 8, false)

	if pCtx.Result.Verdict == nil || pCtx.Result.Verdict.Outcome != linkage.OutcomeSkipped {
		t.Fatalf("Expected skipped verdict, got %+v", pCtx.Result.Verdict)
	}
	if len(host.closed) != 0 || len(host.comments) != 0 {
		t.Errorf("Skip must not touch the PR: closed=%v comments=%v", host.closed, host.comments)
	}
}

func TestEndToEndIrrelevantActionShortCircuits(t *testing.T) {
	host := &fakeHost{}

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)
	p, err := registry.BuildFromNames(pipeline.ResolveSteps(nil, "pr-check"), &pipeline.Dependencies{Host: host})
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}

	id := linkage.PRIdentifier{Owner: "acme", Repo: "widgets", Number: 1}
	pCtx := pipeline.NewContext(context.Background(), id, "labeled", config.New())

	if err := p.Run(pCtx); err != nil {
		t.Fatalf("Pipeline execution failed: %v", err)
	}
	if !pCtx.Result.Skipped {
		t.Error("Expected run to be skipped for irrelevant action")
	}
	if len(host.closed) != 0 || len(host.comments) != 0 {
		t.Errorf("Skipped run must not call the host: closed=%v comments=%v", host.closed, host.comments)
	}
}
