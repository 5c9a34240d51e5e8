package commands

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
	"github.com/prlinkhq/prlink-bot/internal/steps"
	"github.com/prlinkhq/prlink-bot/internal/tui"
)

// Wrapper step to send status updates
type statusReportingStep struct {
	inner      pipeline.Step
	statusChan chan<- tui.PipelineStatusMsg
}

func (s *statusReportingStep) Name() string {
	return s.inner.Name()
}

func (s *statusReportingStep) Run(ctx *pipeline.Context) error {
	s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "started", Message: "Starting..."}
	time.Sleep(100 * time.Millisecond) // Artificial delay for visual effect

	err := s.inner.Run(ctx)

	if err != nil {
		if err == pipeline.ErrSkipPipeline {
			s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "skipped", Message: ctx.Result.SkipReason}
			return err
		}
		s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "error", Message: err.Error()}
		return err
	}

	s.statusChan <- tui.PipelineStatusMsg{Step: s.Name(), Status: "success", Message: "Completed"}
	return nil
}

// ExecutePipeline runs the named steps for one pull request and returns
// the accumulated result. A non-nil pr pre-seeds the snapshot so no fetch
// happens.
func ExecutePipeline(ctx context.Context, id linkage.PRIdentifier, eventAction string, cfg *config.Config, deps *pipeline.Dependencies, stepNames []string, pr *linkage.PRSnapshot) (*pipeline.Result, error) {
	pCtx := pipeline.NewContext(ctx, id, eventAction, cfg)
	pCtx.PR = pr

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	p, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		return nil, err
	}

	if err := p.Run(pCtx); err != nil {
		return pCtx.Result, err
	}
	return pCtx.Result, nil
}

// runPipelineWithStatus runs the pipeline while feeding the TUI, and
// reports the final result to the program.
func runPipelineWithStatus(p *tea.Program, deps *pipeline.Dependencies, stepNames []string, id linkage.PRIdentifier, eventAction string, cfg *config.Config, statusChan chan tui.PipelineStatusMsg) (*pipeline.Result, error) {
	defer close(statusChan)

	pCtx := pipeline.NewContext(context.Background(), id, eventAction, cfg)

	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	builtSteps, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		statusChan <- tui.PipelineStatusMsg{Step: "init", Status: "error", Message: err.Error()}
		p.Send(tui.ResultMsg{Success: false, Output: err.Error()})
		return nil, err
	}

	// Wrap steps with status reporting
	var wrappedSteps []pipeline.Step
	for _, step := range builtSteps.Steps() {
		wrappedSteps = append(wrappedSteps, &statusReportingStep{inner: step, statusChan: statusChan})
	}

	finalPipeline := pipeline.New(wrappedSteps...)

	if err := finalPipeline.Run(pCtx); err != nil {
		p.Send(tui.ResultMsg{Success: false, Output: err.Error()})
		return pCtx.Result, err
	}

	// Marshal result to JSON
	resultBytes, _ := json.MarshalIndent(pCtx.Result, "", "  ")
	p.Send(tui.ResultMsg{Success: true, Output: string(resultBytes)})
	return pCtx.Result, nil
}
