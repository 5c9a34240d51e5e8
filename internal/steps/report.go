package steps

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/core/report"
)

// Report writes the run result to the workflow output files and logs the
// final outcome. It never fails the run: a broken summary file must not
// turn a finished check into an error.
type Report struct{}

// NewReport creates a new report step.
func NewReport(deps *pipeline.Dependencies) *Report {
	return &Report{}
}

// Name returns the step name.
func (s *Report) Name() string {
	return "report"
}

// Run publishes the result.
func (s *Report) Run(ctx *pipeline.Context) error {
	res := ctx.Result

	outcome := "skipped"
	reason := res.SkipReason
	if res.Verdict != nil {
		outcome = string(res.Verdict.Outcome)
		reason = res.Verdict.Reason
	}

	actionKind := "noop"
	if res.Action != nil {
		actionKind = string(res.Action.Kind)
	}

	pairs := []report.Pair{
		{Key: "verdict", Value: outcome},
		{Key: "action", Value: actionKind},
		{Key: "pr_closed", Value: strconv.FormatBool(res.PRClosed)},
		{Key: "comment_posted", Value: strconv.FormatBool(res.CommentPosted)},
	}
	if err := report.WriteOutputs(pairs); err != nil {
		log.Printf("[report] failed to write workflow outputs: %v", err)
	}

	if err := report.WriteSummary(buildSummary(ctx, outcome, reason, actionKind)); err != nil {
		log.Printf("[report] failed to write step summary: %v", err)
	}

	log.Printf("[report] run %s: %s verdict=%s action=%s closed=%t commented=%t",
		res.RunID, ctx.ID, outcome, actionKind, res.PRClosed, res.CommentPosted)
	return nil
}

// buildSummary renders the markdown table for GITHUB_STEP_SUMMARY.
func buildSummary(ctx *pipeline.Context, outcome, reason, actionKind string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## PR linkage check: %s\n\n", ctx.ID)
	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Run | `%s` |\n", ctx.Result.RunID)
	fmt.Fprintf(&sb, "| Verdict | %s |\n", outcome)
	if reason != "" {
		fmt.Fprintf(&sb, "| Reason | %s |\n", reason)
	}
	fmt.Fprintf(&sb, "| Action | %s |\n", actionKind)
	fmt.Fprintf(&sb, "| PR closed | %t |\n", ctx.Result.PRClosed)
	fmt.Fprintf(&sb, "| Comment posted | %t |\n", ctx.Result.CommentPosted)
	return sb.String()
}
