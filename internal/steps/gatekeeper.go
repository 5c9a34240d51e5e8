// Package steps contains the modular pipeline steps.
// Each step implements the pipeline.Step interface.
package steps

import (
	"log"

	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
)

// checkedActions are the pull_request event actions worth re-validating.
// Everything else (labeled, assigned, closed, ...) cannot change the
// linkage verdict.
var checkedActions = map[string]bool{
	"opened":           true,
	"edited":           true,
	"reopened":         true,
	"synchronize":      true,
	"ready_for_review": true,
}

// Gatekeeper decides whether the triggering event is applicable at all.
// It never duplicates the evaluator's bypass rules; those produce a
// verdict, this step only filters noise events.
type Gatekeeper struct{}

// NewGatekeeper creates a new gatekeeper step.
func NewGatekeeper(deps *pipeline.Dependencies) *Gatekeeper {
	return &Gatekeeper{}
}

// Name returns the step name.
func (s *Gatekeeper) Name() string {
	return "gatekeeper"
}

// Run checks event applicability.
func (s *Gatekeeper) Run(ctx *pipeline.Context) error {
	// Empty action means a manual run; always applicable.
	if ctx.EventAction == "" {
		log.Printf("[gatekeeper] %s: manual run, proceeding", ctx.ID)
		return nil
	}

	if !checkedActions[ctx.EventAction] {
		log.Printf("[gatekeeper] %s: action %q is not checked, skipping", ctx.ID, ctx.EventAction)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "event action not applicable"
		return pipeline.ErrSkipPipeline
	}

	log.Printf("[gatekeeper] %s: action %q, proceeding", ctx.ID, ctx.EventAction)
	return nil
}
