// Package linkage implements the PR-issue linkage policy engine.
// It is pure decision logic: snapshots go in, a verdict and an action
// description come out. All host I/O happens behind the fetcher
// interfaces supplied by the caller.
package linkage

import (
	"context"
	"fmt"
)

// PRIdentifier locates a pull request on the host.
type PRIdentifier struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

func (id PRIdentifier) String() string {
	return fmt.Sprintf("%s/%s#%d", id.Owner, id.Repo, id.Number)
}

// IssueRef is a reference to an issue. Repo is "owner/name" for
// cross-repository references and empty for the PR's own repository.
type IssueRef struct {
	Repo   string `json:"repo,omitempty"`
	Number int    `json:"number"`
}

// SameRepo reports whether the reference points at the PR's own repository.
func (r IssueRef) SameRepo() bool {
	return r.Repo == ""
}

func (r IssueRef) String() string {
	if r.Repo == "" {
		return fmt.Sprintf("#%d", r.Number)
	}
	return fmt.Sprintf("%s#%d", r.Repo, r.Number)
}

// PRSnapshot is the immutable view of a pull request used for evaluation.
type PRSnapshot struct {
	Owner        string     `json:"owner"`
	Repo         string     `json:"repo"`
	Number       int        `json:"number"`
	Title        string     `json:"title,omitempty"`
	Author       string     `json:"author"`
	IsBot        bool       `json:"is_bot"`
	Description  string     `json:"description,omitempty"`
	BaseBranch   string     `json:"base_branch,omitempty"`
	State        string     `json:"state,omitempty"` // "open" or "closed"
	URL          string     `json:"url,omitempty"`
	LinkedIssues []IssueRef `json:"linked_issues,omitempty"`
}

// ID returns the identifier for this snapshot.
func (pr *PRSnapshot) ID() PRIdentifier {
	return PRIdentifier{Owner: pr.Owner, Repo: pr.Repo, Number: pr.Number}
}

// IssueSnapshot is the immutable view of an issue used for the assignee
// check. Assignees is empty when nobody is assigned.
type IssueSnapshot struct {
	Number    int      `json:"number"`
	Assignees []string `json:"assignees,omitempty"`
}

// Outcome is the overall result of evaluating a pull request.
type Outcome string

const (
	OutcomePass                 Outcome = "pass"
	OutcomeFailNoIssue          Outcome = "fail_no_issue"
	OutcomeFailAssigneeMismatch Outcome = "fail_assignee_mismatch"
	OutcomeFailTargetBranch     Outcome = "fail_target_branch"
	OutcomeSkipped              Outcome = "skipped"
)

// Verdict is the result of a policy evaluation.
type Verdict struct {
	Outcome Outcome `json:"outcome"`

	// Reason is a short human-readable explanation for logs.
	Reason string `json:"reason,omitempty"`

	// Message is the configured failure message, rendered. Empty for
	// pass and skipped verdicts.
	Message string `json:"message,omitempty"`

	// Target is the issue used for the assignee check, if one was.
	Target *IssueRef `json:"target,omitempty"`
}

// Failed reports whether the verdict is any of the failure outcomes.
func (v *Verdict) Failed() bool {
	switch v.Outcome {
	case OutcomeFailNoIssue, OutcomeFailAssigneeMismatch, OutcomeFailTargetBranch:
		return true
	}
	return false
}

// ActionKind identifies what the caller should do with a pull request.
type ActionKind string

const (
	ActionNoOp        ActionKind = "noop"
	ActionPostComment ActionKind = "post_comment"
	ActionClosePR     ActionKind = "close_pr"
)

// Action describes the enforcement the caller should execute. The engine
// never executes it; closing and commenting belong to the host layer.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

// IssueFetcher retrieves issue snapshots. Implementations are bound to the
// PR's repository so a same-repo ref (empty Repo) resolves against it.
// Lookup failures must be returned as errors so the evaluator can
// propagate them instead of guessing.
type IssueFetcher interface {
	FetchIssue(ctx context.Context, ref IssueRef) (*IssueSnapshot, error)
}

// PRFetcher retrieves pull request snapshots.
type PRFetcher interface {
	FetchPR(ctx context.Context, id PRIdentifier) (*PRSnapshot, error)
}

// Host is the full collaborator surface the engine consumes.
type Host interface {
	PRFetcher
	IssueFetcher
}

// FetchIssueFunc adapts a function to the IssueFetcher interface.
type FetchIssueFunc func(ctx context.Context, ref IssueRef) (*IssueSnapshot, error)

func (f FetchIssueFunc) FetchIssue(ctx context.Context, ref IssueRef) (*IssueSnapshot, error) {
	return f(ctx, ref)
}
