package commands

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/integrations/github"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
	"github.com/prlinkhq/prlink-bot/internal/tui"
)

var (
	checkRepo       string
	checkNumber     int
	checkEventPath  string
	checkWorkflow   string
	checkDryRun     bool
	failOnViolation bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a single pull request against the linkage policy",
	Long: `Check a pull request and enforce the configured policy.
The PR comes from the GitHub Actions event payload (GITHUB_EVENT_PATH) or
from --repo and --number for manual runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCheck()
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkRepo, "repo", "", "Repository as owner/name (manual runs)")
	checkCmd.Flags().IntVar(&checkNumber, "number", 0, "Pull request number (manual runs)")
	checkCmd.Flags().StringVar(&checkEventPath, "event", "", "Path to event payload JSON (defaults to GITHUB_EVENT_PATH)")
	checkCmd.Flags().StringVar(&checkWorkflow, "workflow", "", "Workflow preset to run (default pr-check)")
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Decide and log enforcement without executing it")
	checkCmd.Flags().BoolVar(&failOnViolation, "fail-on-violation", false, "Exit 1 when the verdict is a failure")
}

func runCheck() {
	// 1. Load config
	cfg := loadConfiguration()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// 2. Resolve the PR to check
	id, eventAction, err := resolveCheckTarget()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	// 3. Build dependencies
	deps := &pipeline.Dependencies{
		Host:   github.NewService(context.Background(), cfg.Auth.Token),
		DryRun: checkDryRun,
	}

	workflow := checkWorkflow
	if workflow == "" {
		workflow = cfg.Workflow
	}
	stepNames := pipeline.ResolveSteps(cfg.Steps, workflow)

	// 4. Run: headless in CI, TUI locally
	isCI := os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"

	var result *pipeline.Result
	if isCI {
		fmt.Println("[prlink] Running in CI mode (no TUI)")
		result, err = ExecutePipeline(context.Background(), id, eventAction, cfg, deps, stepNames, nil)
	} else {
		result, err = runCheckWithTUI(id, eventAction, cfg, deps, stepNames)
	}
	if err != nil {
		log.Fatalf("Check failed: %v", err)
	}

	printCheckResult(result)

	if failOnViolation && result.Verdict != nil && result.Verdict.Failed() {
		os.Exit(1)
	}
}

// resolveCheckTarget picks the PR from flags or the event payload.
func resolveCheckTarget() (linkage.PRIdentifier, string, error) {
	if checkRepo != "" || checkNumber != 0 {
		if checkRepo == "" || checkNumber <= 0 {
			return linkage.PRIdentifier{}, "", fmt.Errorf("manual runs need both --repo and --number")
		}
		owner, repo, err := parseRepoFlag(checkRepo)
		if err != nil {
			return linkage.PRIdentifier{}, "", err
		}
		return linkage.PRIdentifier{Owner: owner, Repo: repo, Number: checkNumber}, "", nil
	}

	path := checkEventPath
	if path == "" {
		path = os.Getenv("GITHUB_EVENT_PATH")
	}
	if path == "" {
		return linkage.PRIdentifier{}, "", fmt.Errorf("no event payload: set GITHUB_EVENT_PATH or use --repo/--number")
	}

	event, err := loadEvent(path)
	if err != nil {
		return linkage.PRIdentifier{}, "", err
	}
	id, err := event.identifier()
	if err != nil {
		return linkage.PRIdentifier{}, "", err
	}
	return id, event.Action, nil
}

func runCheckWithTUI(id linkage.PRIdentifier, eventAction string, cfg *config.Config, deps *pipeline.Dependencies, stepNames []string) (*pipeline.Result, error) {
	statusChan := make(chan tui.PipelineStatusMsg)
	model := tui.NewModel(stepNames, statusChan)
	p := tea.NewProgram(model)

	type outcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := runPipelineWithStatus(p, deps, stepNames, id, eventAction, cfg, statusChan)
		done <- outcome{result, err}
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}

	out := <-done
	return out.result, out.err
}

func printCheckResult(result *pipeline.Result) {
	switch {
	case result.Skipped:
		fmt.Printf("○ Skipped: %s\n", result.SkipReason)
	case result.Verdict != nil && result.Verdict.Failed():
		fmt.Printf("❌ %s: %s\n", result.Verdict.Outcome, result.Verdict.Reason)
		if result.PRClosed {
			fmt.Println("   Pull request closed")
		}
		if result.CommentPosted {
			fmt.Println("   Comment posted")
		}
	default:
		fmt.Println("✓ Check passed")
	}
}
