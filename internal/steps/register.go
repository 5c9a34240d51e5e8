package steps

import (
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
func RegisterAll(r *pipeline.Registry) {
	r.Register("gatekeeper", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewGatekeeper(deps), nil
	})

	r.Register("snapshot", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewSnapshot(deps), nil
	})

	r.Register("evaluate", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewEvaluate(deps), nil
	})

	r.Register("enforce", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewEnforce(deps), nil
	})

	r.Register("report", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewReport(deps), nil
	})
}
