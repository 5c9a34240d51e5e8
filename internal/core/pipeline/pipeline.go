// Package pipeline provides the core pipeline engine for prlink-bot.
// It defines the Step interface and Context structure used by all pipeline steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

// ErrSkipPipeline indicates that the pipeline should stop gracefully.
// This is not an error condition, just an early exit (e.g., irrelevant
// event action, PR already closed).
var ErrSkipPipeline = errors.New("skip remaining pipeline steps")

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Name returns the unique identifier for this step.
	Name() string

	// Run executes the step's logic.
	// It should return ErrSkipPipeline to stop the pipeline gracefully,
	// or any other error to indicate failure.
	Run(ctx *Context) error
}

// Host is the collaborator surface the steps need from the GitHub layer.
// Implementations live in internal/integrations/github; tests supply stubs.
type Host interface {
	// SnapshotPR fetches the pull request and its natively linked issues.
	SnapshotPR(ctx context.Context, id linkage.PRIdentifier) (*linkage.PRSnapshot, error)

	// FetchIssue resolves ref against the PR's repository and fetches the
	// issue snapshot.
	FetchIssue(ctx context.Context, base linkage.PRIdentifier, ref linkage.IssueRef) (*linkage.IssueSnapshot, error)

	// ClosePR closes the pull request.
	ClosePR(ctx context.Context, id linkage.PRIdentifier) error

	// PostComment posts a comment on the pull request.
	PostComment(ctx context.Context, id linkage.PRIdentifier, body string) error
}

// Dependencies holds the dependencies injected into steps.
type Dependencies struct {
	// Host is the GitHub collaborator. May be nil when every PR snapshot
	// is supplied up front and enforcement runs dry.
	Host Host

	// DryRun disables all writes: enforcement is decided and logged but
	// never executed.
	DryRun bool
}

// Result holds the accumulated results from pipeline execution.
type Result struct {
	RunID         string           `json:"run_id"`
	PRNumber      int              `json:"pr_number"`
	Skipped       bool             `json:"skipped"`
	SkipReason    string           `json:"skip_reason,omitempty"`
	Verdict       *linkage.Verdict `json:"verdict,omitempty"`
	Action        *linkage.Action  `json:"action,omitempty"`
	PRClosed      bool             `json:"pr_closed"`
	CommentPosted bool             `json:"comment_posted"`
}

// Context carries data through the pipeline steps.
type Context struct {
	// Ctx is the Go context for cancellation and timeouts.
	Ctx context.Context

	// ID locates the pull request being checked.
	ID linkage.PRIdentifier

	// EventAction is the webhook event action that triggered the run
	// ("opened", "edited", ...). Empty for manual runs.
	EventAction string

	// PR is the snapshot being evaluated. The snapshot step fills it in;
	// batch and validate flows may pre-seed it.
	PR *linkage.PRSnapshot

	// Config is the loaded configuration.
	Config *config.Config

	// Result accumulates the processing results.
	Result *Result

	// Metadata allows steps to pass arbitrary data to subsequent steps.
	Metadata map[string]interface{}
}

// NewContext creates a new pipeline context for a pull request.
func NewContext(ctx context.Context, id linkage.PRIdentifier, eventAction string, cfg *config.Config) *Context {
	return &Context{
		Ctx:         ctx,
		ID:          id,
		EventAction: eventAction,
		Config:      cfg,
		Result: &Result{
			RunID:    uuid.NewString()[:8],
			PRNumber: id.Number,
		},
		Metadata: make(map[string]interface{}),
	}
}

// Pipeline executes a sequence of steps.
type Pipeline struct {
	steps []Step
}

// New creates a new pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run executes all steps in order.
// Stops on the first error (unless it's ErrSkipPipeline, which is graceful).
func (p *Pipeline) Run(ctx *Context) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			if errors.Is(err, ErrSkipPipeline) {
				// Graceful early exit
				return nil
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name(), err)
		}
	}
	return nil
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Steps returns the list of steps (for introspection).
func (p *Pipeline) Steps() []Step {
	return p.steps
}
