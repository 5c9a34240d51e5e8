package steps

import (
	"context"
	"fmt"
	"log"

	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

// Evaluate runs the policy evaluator against the PR snapshot and stores
// the verdict. Lookup failures propagate so the caller can decide whether
// to retry or fail the run.
type Evaluate struct {
	host pipeline.Host
}

// NewEvaluate creates a new evaluate step.
func NewEvaluate(deps *pipeline.Dependencies) *Evaluate {
	return &Evaluate{
		host: deps.Host,
	}
}

// Name returns the step name.
func (s *Evaluate) Name() string {
	return "evaluate"
}

// Run produces the verdict.
func (s *Evaluate) Run(ctx *pipeline.Context) error {
	if ctx.PR == nil {
		return fmt.Errorf("snapshot step must run before evaluate")
	}

	var fetcher linkage.IssueFetcher
	if s.host != nil {
		base := ctx.ID
		fetcher = linkage.FetchIssueFunc(func(fctx context.Context, ref linkage.IssueRef) (*linkage.IssueSnapshot, error) {
			return s.host.FetchIssue(fctx, base, ref)
		})
	}

	evaluator := linkage.NewEvaluator(ctx.Config, fetcher)
	verdict, err := evaluator.Evaluate(ctx.Ctx, ctx.PR)
	if err != nil {
		return err
	}

	ctx.Result.Verdict = verdict
	if verdict.Outcome == linkage.OutcomeSkipped {
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = verdict.Reason
	}

	log.Printf("[evaluate] %s: outcome=%s reason=%q", ctx.ID, verdict.Outcome, verdict.Reason)
	return nil
}
