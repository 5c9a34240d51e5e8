package linkage

import (
	"context"
	"fmt"
	"log"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
)

// Evaluator applies the configured linkage policy to pull request
// snapshots. It performs no I/O of its own; the issue fetcher is only
// consulted when the assignee rule needs an issue snapshot.
type Evaluator struct {
	cfg     *config.Config
	fetcher IssueFetcher
}

// NewEvaluator creates an evaluator for the given configuration. The
// fetcher may be nil when require_assignee is disabled.
func NewEvaluator(cfg *config.Config, fetcher IssueFetcher) *Evaluator {
	return &Evaluator{cfg: cfg, fetcher: fetcher}
}

// Evaluate produces exactly one verdict for the snapshot. Rules apply in
// order and the first applicable one wins:
//
//  1. Bot authors are skipped.
//  2. Authors in skip_users are skipped.
//  3. The base branch must be in target_branches (when configured).
//  4. Linked issues come from the host's linking feature, falling back to
//     description references when check_issue_reference is enabled.
//  5. No candidate issue fails the check.
//  6. With require_assignee, the first same-repo candidate's assignees
//     must include the PR author.
//
// Issue lookup failures are returned as errors, never folded into a
// mismatch verdict.
func (e *Evaluator) Evaluate(ctx context.Context, pr *PRSnapshot) (*Verdict, error) {
	// 1. Bot bypass
	if pr.IsBot {
		log.Printf("[evaluate] %s: skipping bot author %q", pr.ID(), pr.Author)
		return &Verdict{Outcome: OutcomeSkipped, Reason: "bot author"}, nil
	}

	// 2. Whitelist bypass (exact, case-sensitive)
	for _, u := range e.cfg.Policy.SkipUsers {
		if pr.Author == u {
			log.Printf("[evaluate] %s: skipping whitelisted author %q", pr.ID(), pr.Author)
			return &Verdict{Outcome: OutcomeSkipped, Reason: "author in skip list"}, nil
		}
	}

	// 3. Target branch restriction
	if len(e.cfg.Policy.TargetBranches) > 0 && !containsString(e.cfg.Policy.TargetBranches, pr.BaseBranch) {
		log.Printf("[evaluate] %s: base branch %q not in allowed set %v", pr.ID(), pr.BaseBranch, e.cfg.Policy.TargetBranches)
		return &Verdict{
			Outcome: OutcomeFailTargetBranch,
			Reason:  fmt.Sprintf("base branch %q is not an allowed target", pr.BaseBranch),
			Message: e.cfg.Enforcement.InvalidBranchMessage,
		}, nil
	}

	// 4. Linkage resolution: native links first, description fallback second
	candidates := pr.LinkedIssues
	if len(candidates) == 0 && e.cfg.Policy.CheckIssueReference {
		candidates = ParseRefs(pr.Description)
		if len(candidates) > 0 {
			log.Printf("[evaluate] %s: found %d issue reference(s) in description", pr.ID(), len(candidates))
		}
	}

	// 5. No-issue failure
	if len(candidates) == 0 {
		log.Printf("[evaluate] %s: no linked issue", pr.ID())
		return &Verdict{
			Outcome: OutcomeFailNoIssue,
			Reason:  "no linked issue",
			Message: e.cfg.Enforcement.NoIssueMessage,
		}, nil
	}

	// 6. Assignee check
	if !e.cfg.Policy.RequireAssignee {
		return &Verdict{Outcome: OutcomePass, Reason: "linked issue found"}, nil
	}

	target, ok := firstSameRepo(candidates)
	if !ok {
		// Cross-repo references satisfy linkage, but their assignees are
		// out of reach for this token scope.
		log.Printf("[evaluate] %s: only cross-repo references, assignee check skipped", pr.ID())
		return &Verdict{Outcome: OutcomePass, Reason: "cross-repository linkage"}, nil
	}

	if e.fetcher == nil {
		return nil, fmt.Errorf("assignee check requires an issue fetcher")
	}

	issue, err := e.fetcher.FetchIssue(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s: %w", target, err)
	}

	if len(issue.Assignees) == 0 {
		log.Printf("[evaluate] %s: issue %s has no assignee", pr.ID(), target)
		return &Verdict{
			Outcome: OutcomeFailAssigneeMismatch,
			Reason:  "issue has no assignee",
			Message: e.cfg.Enforcement.AssigneeMismatchMessage,
			Target:  &target,
		}, nil
	}

	if !containsString(issue.Assignees, pr.Author) {
		log.Printf("[evaluate] %s: assignees %v do not include author %q", pr.ID(), issue.Assignees, pr.Author)
		return &Verdict{
			Outcome: OutcomeFailAssigneeMismatch,
			Reason:  "assignee mismatch",
			Message: e.cfg.Enforcement.AssigneeMismatchMessage,
			Target:  &target,
		}, nil
	}

	return &Verdict{Outcome: OutcomePass, Reason: "assignee matches author", Target: &target}, nil
}

// firstSameRepo returns the first candidate without a repository qualifier.
func firstSameRepo(refs []IssueRef) (IssueRef, bool) {
	for _, ref := range refs {
		if ref.SameRepo() {
			return ref, true
		}
	}
	return IssueRef{}, false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
