package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v60/github"
)

// Client wraps the GitHub REST API client.
type Client struct {
	client *github.Client
}

// GetPullRequest fetches pull request details.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, resp, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request: %w", classify(err, resp))
	}

	return pr, nil
}

// GetIssue fetches issue details.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error) {
	issue, resp, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue: %w", classify(err, resp))
	}

	return issue, nil
}

// ListOpenPullRequests fetches all open pull requests in a repository.
func (c *Client) ListOpenPullRequests(ctx context.Context, owner, repo string) ([]*github.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.PullRequest
	for {
		prs, resp, err := c.client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", classify(err, resp))
		}
		all = append(all, prs...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateComment posts a comment on a pull request or issue.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("comment body cannot be empty")
	}

	comment := &github.IssueComment{
		Body: github.String(body),
	}
	_, resp, err := c.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", classify(err, resp))
	}
	return nil
}

// ClosePullRequest sets the pull request state to closed.
func (c *Client) ClosePullRequest(ctx context.Context, owner, repo string, number int) error {
	closed := "closed"
	_, resp, err := c.client.PullRequests.Edit(ctx, owner, repo, number, &github.PullRequest{
		State: &closed,
	})
	if err != nil {
		return fmt.Errorf("failed to close pull request: %w", classify(err, resp))
	}
	return nil
}

// GetFileContent fetches the raw content of a file at the given ref.
// Used to resolve org-level config inheritance.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file content: %w", classify(err, resp))
	}
	if file == nil {
		return nil, fmt.Errorf("path %q is a directory, not a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	return []byte(content), nil
}
