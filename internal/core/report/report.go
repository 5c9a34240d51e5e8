// Package report persists run results for workflow consumption.
// It writes GitHub Actions output files: key=value pairs to the file named
// by GITHUB_OUTPUT and markdown to the file named by GITHUB_STEP_SUMMARY.
// When the environment variables are unset the writers are no-ops, so
// local runs need no special casing.
package report

import (
	"fmt"
	"os"
	"strings"
)

const (
	// OutputEnv names the env var pointing at the workflow output file.
	OutputEnv = "GITHUB_OUTPUT"

	// SummaryEnv names the env var pointing at the step summary file.
	SummaryEnv = "GITHUB_STEP_SUMMARY"
)

// Pair is a single workflow output. Order is preserved when writing.
type Pair struct {
	Key   string
	Value string
}

// WriteOutputs appends key=value lines to the workflow output file.
// Values containing newlines use the heredoc form GitHub requires.
func WriteOutputs(pairs []Pair) error {
	path := os.Getenv(OutputEnv)
	if path == "" {
		return nil
	}
	return appendFile(path, formatOutputs(pairs))
}

// WriteSummary appends markdown to the step summary file.
func WriteSummary(markdown string) error {
	path := os.Getenv(SummaryEnv)
	if path == "" {
		return nil
	}
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	return appendFile(path, markdown)
}

// formatOutputs renders pairs in the GITHUB_OUTPUT syntax.
func formatOutputs(pairs []Pair) string {
	var sb strings.Builder
	for _, p := range pairs {
		if strings.Contains(p.Value, "\n") {
			fmt.Fprintf(&sb, "%s<<PRLINK_EOF\n%s\nPRLINK_EOF\n", p.Key, p.Value)
			continue
		}
		fmt.Fprintf(&sb, "%s=%s\n", p.Key, p.Value)
	}
	return sb.String()
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
