package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

// prEvent is the subset of the pull_request webhook payload the check needs.
type prEvent struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
}

// parseEvent decodes a pull_request event payload.
func parseEvent(data []byte) (*prEvent, error) {
	var event prEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	return &event, nil
}

// loadEvent reads the event payload from a file (normally the file named
// by GITHUB_EVENT_PATH).
func loadEvent(path string) (*prEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return parseEvent(data)
}

// identifier turns the event into a PR identifier.
func (e *prEvent) identifier() (linkage.PRIdentifier, error) {
	parts := strings.SplitN(e.Repository.FullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return linkage.PRIdentifier{}, fmt.Errorf("invalid repository name %q in event", e.Repository.FullName)
	}
	if e.PullRequest.Number <= 0 {
		return linkage.PRIdentifier{}, fmt.Errorf("event has no pull request number")
	}

	return linkage.PRIdentifier{
		Owner:  parts[0],
		Repo:   parts[1],
		Number: e.PullRequest.Number,
	}, nil
}

// parseRepoFlag splits an "owner/name" flag value.
func parseRepoFlag(value string) (owner, repo string, err error) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid --repo value %q (expected owner/name)", value)
	}
	return parts[0], parts[1], nil
}
