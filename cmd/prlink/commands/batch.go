package commands

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/integrations/github"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

var (
	batchFile     string
	batchRepo     string
	batchOutFile  string
	batchFormat   string
	batchWorkers  int
	batchWorkflow string
)

// BatchJob represents a job to process in the worker pool
type BatchJob struct {
	Index int
	ID    linkage.PRIdentifier
	PR    *linkage.PRSnapshot // pre-seeded for file mode, nil for repo mode
}

// BatchResult represents the result of auditing a single pull request
type BatchResult struct {
	Index  int
	ID     linkage.PRIdentifier
	Result *pipeline.Result
	Error  error
}

// JSONOutput represents the JSON output structure
type JSONOutput struct {
	ProcessedAt time.Time     `json:"processed_at"`
	TotalPRs    int           `json:"total_prs"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	Results     []ResultEntry `json:"results"`
}

// ResultEntry represents a single result entry in JSON output
type ResultEntry struct {
	PR     linkage.PRIdentifier `json:"pr"`
	Result *pipeline.Result     `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Audit multiple pull requests in dry-run mode",
	Long: `Audit many pull requests against the linkage policy without writing
anything to GitHub. PRs come from a JSON file of snapshots (--file) or from
every open PR in a repository (--repo). Results go to stdout or a file in
JSON or CSV format.

Use cases:
- Preview what a policy change would do before enabling enforcement
- Generate a linkage report for an existing backlog of open PRs
- Test message templates against historical data`,
	Run: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchFile, "file", "", "Path to JSON file containing an array of PR snapshots")
	batchCmd.Flags().StringVar(&batchRepo, "repo", "", "Audit all open PRs in owner/name")
	batchCmd.Flags().StringVar(&batchOutFile, "out-file", "", "Output file path (stdout if not specified)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "Output format: json or csv (inferred from out-file when unset)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 1, "Number of concurrent workers")
	batchCmd.Flags().StringVar(&batchWorkflow, "workflow", "audit", "Workflow preset to run")
}

func runBatch(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if (batchFile == "") == (batchRepo == "") {
		fmt.Println("❌ Provide exactly one of --file or --repo")
		os.Exit(1)
	}

	// 1. Load Configuration
	cfg := loadConfiguration()

	// 2. Build the host when a token is available. File mode works
	// without one as long as require_assignee stays off.
	var host pipeline.Host
	if cfg.Auth.Token != "" {
		host = github.NewService(ctx, cfg.Auth.Token)
	}

	// 3. Collect the jobs
	jobs, err := collectBatchJobs(ctx, host)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("Loaded %d pull requests\n", len(jobs))
	}

	// 4. Determine steps (enforce is never run — batch must not write)
	stepNames := pipeline.ResolveSteps(cfg.Steps, batchWorkflow)
	filtered := make([]string, 0, len(stepNames))
	for _, name := range stepNames {
		if name == "enforce" {
			if verbose {
				fmt.Println("Skipping enforce step (batch mode never writes)")
			}
			continue
		}
		filtered = append(filtered, name)
	}
	stepNames = filtered
	if verbose {
		fmt.Printf("Pipeline steps: %v\n", stepNames)
	}

	// 5. Dependencies with DryRun forced on, in case a custom step list
	// smuggled enforcement back in
	deps := &pipeline.Dependencies{
		Host:   host,
		DryRun: true,
	}
	if verbose {
		fmt.Println("✓ Dry-run mode enabled (no GitHub writes will be performed)")
	}

	// 6. Process batch
	fmt.Printf("Auditing %d pull requests with %d workers...\n", len(jobs), batchWorkers)
	results := processBatch(ctx, jobs, cfg, deps, stepNames)

	// 7. Output results
	if err := outputResults(results); err != nil {
		fmt.Printf("❌ Error outputting results: %v\n", err)
		os.Exit(1)
	}

	// 8. Print summary
	successful := 0
	failed := 0
	for _, r := range results {
		if r.Error == nil {
			successful++
		} else {
			failed++
		}
	}
	fmt.Printf("\n✓ Batch audit completed: %d successful, %d failed\n", successful, failed)
}

// collectBatchJobs builds the job list from the file or the repository.
func collectBatchJobs(ctx context.Context, host pipeline.Host) ([]BatchJob, error) {
	if batchFile != "" {
		snapshots, err := loadSnapshots(batchFile)
		if err != nil {
			return nil, err
		}
		jobs := make([]BatchJob, len(snapshots))
		for i := range snapshots {
			jobs[i] = BatchJob{Index: i, ID: snapshots[i].ID(), PR: &snapshots[i]}
		}
		return jobs, nil
	}

	owner, repo, err := parseRepoFlag(batchRepo)
	if err != nil {
		return nil, err
	}
	svc, ok := host.(*github.Service)
	if !ok || svc == nil {
		return nil, fmt.Errorf("--repo requires a GitHub token")
	}
	ids, err := svc.ListOpenPRs(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	jobs := make([]BatchJob, len(ids))
	for i, id := range ids {
		jobs[i] = BatchJob{Index: i, ID: id}
	}
	return jobs, nil
}

// loadSnapshots reads and parses a JSON file containing an array of PR snapshots
func loadSnapshots(filePath string) ([]linkage.PRSnapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snapshots []linkage.PRSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no pull requests found in file")
	}

	// Validate required fields
	for i, pr := range snapshots {
		if pr.Owner == "" || pr.Repo == "" || pr.Number == 0 || pr.Author == "" {
			return nil, fmt.Errorf("snapshot at index %d missing required fields (owner, repo, number, author)", i)
		}
	}

	return snapshots, nil
}

// processBatch audits all pull requests using a worker pool pattern
func processBatch(ctx context.Context, jobs []BatchJob, cfg *config.Config, deps *pipeline.Dependencies, stepNames []string) []BatchResult {
	jobChan := make(chan BatchJob, batchWorkers)
	resultChan := make(chan BatchResult, batchWorkers)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < batchWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if verbose {
					fmt.Printf("[Worker %d] Auditing %s\n", workerID, job.ID)
				}

				result, err := ExecutePipeline(ctx, job.ID, "", cfg, deps, stepNames, job.PR)

				resultChan <- BatchResult{
					Index:  job.Index,
					ID:     job.ID,
					Result: result,
					Error:  err,
				}

				if verbose {
					if err != nil {
						fmt.Printf("[Worker %d] ❌ %s failed: %v\n", workerID, job.ID, err)
					} else {
						fmt.Printf("[Worker %d] ✓ %s completed\n", workerID, job.ID)
					}
				}
			}
		}(i)
	}

	// Send jobs
	go func() {
		for _, job := range jobs {
			jobChan <- job
		}
		close(jobChan)
	}()

	// Collect results
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Gather results in order
	resultMap := make(map[int]BatchResult)
	for result := range resultChan {
		resultMap[result.Index] = result
	}

	orderedResults := make([]BatchResult, len(jobs))
	for i := range jobs {
		orderedResults[i] = resultMap[i]
	}

	return orderedResults
}

// outputResults formats and writes results to the specified output
func outputResults(results []BatchResult) error {
	var data []byte
	var err error

	// Determine format
	format := batchFormat
	if format == "" && batchOutFile != "" {
		// Infer from file extension
		ext := strings.ToLower(filepath.Ext(batchOutFile))
		if ext == ".csv" {
			format = "csv"
		} else {
			format = "json"
		}
	}
	if format == "" {
		format = "json"
	}

	// Format output
	switch format {
	case "csv":
		data, err = formatCSV(results)
	case "json":
		data, err = formatJSON(results)
	default:
		return fmt.Errorf("unsupported format: %s (use json or csv)", format)
	}

	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Write output
	if batchOutFile != "" {
		if err := os.WriteFile(batchOutFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("✓ Results written to %s\n", batchOutFile)
	} else {
		fmt.Println("\n=== Batch Results ===")
		fmt.Println(string(data))
	}

	return nil
}

// formatJSON formats results as JSON
func formatJSON(results []BatchResult) ([]byte, error) {
	successful := 0
	failed := 0
	entries := make([]ResultEntry, len(results))

	for i, r := range results {
		entry := ResultEntry{
			PR:     r.ID,
			Result: r.Result,
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
			failed++
		} else {
			successful++
		}
		entries[i] = entry
	}

	output := JSONOutput{
		ProcessedAt: time.Now(),
		TotalPRs:    len(results),
		Successful:  successful,
		Failed:      failed,
		Results:     entries,
	}

	return json.MarshalIndent(output, "", "  ")
}

// formatCSV formats results as CSV
func formatCSV(results []BatchResult) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	// Write header
	header := []string{
		"owner",
		"repo",
		"number",
		"skipped",
		"skip_reason",
		"verdict",
		"action",
		"message",
		"error",
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, r := range results {
		row := []string{r.ID.Owner, r.ID.Repo, strconv.Itoa(r.ID.Number)}
		if r.Result != nil {
			verdict := ""
			message := ""
			if r.Result.Verdict != nil {
				verdict = string(r.Result.Verdict.Outcome)
				message = r.Result.Verdict.Message
			}
			action := ""
			if r.Result.Action != nil {
				action = string(r.Result.Action.Kind)
			}
			row = append(row,
				strconv.FormatBool(r.Result.Skipped),
				r.Result.SkipReason,
				verdict,
				action,
				message,
			)
		} else {
			row = append(row, "", "", "", "", "")
		}
		if r.Error != nil {
			row = append(row, r.Error.Error())
		} else {
			row = append(row, "")
		}

		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return []byte(buf.String()), nil
}
