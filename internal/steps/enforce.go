package steps

import (
	"fmt"
	"log"

	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	gh "github.com/prlinkhq/prlink-bot/internal/integrations/github"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
	"github.com/prlinkhq/prlink-bot/internal/utils/text"
)

// Enforce maps the verdict onto an enforcement action and executes it.
// With DryRun the action is decided and logged but never executed.
type Enforce struct {
	host   pipeline.Host
	dryRun bool
}

// NewEnforce creates a new enforce step.
func NewEnforce(deps *pipeline.Dependencies) *Enforce {
	return &Enforce{
		host:   deps.Host,
		dryRun: deps.DryRun,
	}
}

// Name returns the step name.
func (s *Enforce) Name() string {
	return "enforce"
}

// Run dispatches and executes the enforcement action.
func (s *Enforce) Run(ctx *pipeline.Context) error {
	if ctx.Result.Verdict == nil {
		return fmt.Errorf("evaluate step must run before enforce")
	}

	action := linkage.Dispatch(ctx.Config, ctx.PR, ctx.Result.Verdict)
	ctx.Result.Action = &action

	if action.Kind == linkage.ActionNoOp {
		log.Printf("[enforce] %s: nothing to enforce", ctx.ID)
		return nil
	}

	if s.dryRun {
		log.Printf("[enforce] %s: dry-run, would %s with message %q",
			ctx.ID, action.Kind, text.Excerpt(action.Message, 80))
		return nil
	}

	if s.host == nil {
		return fmt.Errorf("no host client configured for enforcement")
	}

	body := text.BuildCommentBody(action.Message)
	if err := retryTransient(func() error {
		return s.host.PostComment(ctx.Ctx, ctx.ID, body)
	}); err != nil {
		return err
	}
	ctx.Result.CommentPosted = true
	log.Printf("[enforce] %s: comment posted", ctx.ID)

	if action.Kind == linkage.ActionClosePR {
		if err := retryTransient(func() error {
			return s.host.ClosePR(ctx.Ctx, ctx.ID)
		}); err != nil {
			return err
		}
		ctx.Result.PRClosed = true
		log.Printf("[enforce] %s: pull request closed", ctx.ID)
	}

	return nil
}

// retryTransient runs op, retrying exactly once when the failure is
// classified as transient.
func retryTransient(op func() error) error {
	err := op()
	if err != nil && gh.IsTransient(err) {
		log.Printf("[enforce] transient failure, retrying once: %v", err)
		err = op()
	}
	return err
}
