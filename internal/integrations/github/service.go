package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

// Service combines the REST and GraphQL clients into the host surface the
// pipeline consumes: snapshot fetching, issue lookup and enforcement writes.
type Service struct {
	rest *Client
	gql  *GraphQLClient
}

// NewService creates the full host collaborator for the given token.
func NewService(ctx context.Context, token string) *Service {
	return &Service{
		rest: NewClient(ctx, token),
		gql:  NewGraphQLClient(tokenHTTPClient(ctx, token), token),
	}
}

// REST exposes the underlying REST client (config inheritance fetches
// files through it).
func (s *Service) REST() *Client {
	return s.rest
}

// SnapshotPR fetches the pull request over REST and its linked issues over
// GraphQL, and folds both into an immutable snapshot.
func (s *Service) SnapshotPR(ctx context.Context, id linkage.PRIdentifier) (*linkage.PRSnapshot, error) {
	pr, err := s.rest.GetPullRequest(ctx, id.Owner, id.Repo, id.Number)
	if err != nil {
		return nil, err
	}

	linked, err := s.gql.LinkedIssues(ctx, id.Owner, id.Repo, id.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch linked issues: %w", err)
	}

	snap := &linkage.PRSnapshot{
		Owner:       id.Owner,
		Repo:        id.Repo,
		Number:      id.Number,
		Title:       pr.GetTitle(),
		Author:      pr.GetUser().GetLogin(),
		IsBot:       pr.GetUser().GetType() == "Bot",
		Description: pr.GetBody(),
		BaseBranch:  pr.GetBase().GetRef(),
		State:       pr.GetState(),
		URL:         pr.GetHTMLURL(),
	}

	for _, li := range linked {
		ref := linkage.IssueRef{Number: li.Number}
		if !strings.EqualFold(li.Owner, id.Owner) || !strings.EqualFold(li.Repo, id.Repo) {
			ref.Repo = li.Owner + "/" + li.Repo
		}
		snap.LinkedIssues = append(snap.LinkedIssues, ref)
	}

	return snap, nil
}

// FetchIssue resolves ref against the PR's repository and fetches the
// issue's assignees.
func (s *Service) FetchIssue(ctx context.Context, base linkage.PRIdentifier, ref linkage.IssueRef) (*linkage.IssueSnapshot, error) {
	owner, repo := base.Owner, base.Repo
	if !ref.SameRepo() {
		parts := strings.SplitN(ref.Repo, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid repository qualifier %q", ref.Repo)
		}
		owner, repo = parts[0], parts[1]
	}

	issue, err := s.rest.GetIssue(ctx, owner, repo, ref.Number)
	if err != nil {
		return nil, err
	}

	snap := &linkage.IssueSnapshot{Number: ref.Number}
	for _, a := range issue.Assignees {
		if login := a.GetLogin(); login != "" {
			snap.Assignees = append(snap.Assignees, login)
		}
	}

	return snap, nil
}

// ClosePR closes the pull request.
func (s *Service) ClosePR(ctx context.Context, id linkage.PRIdentifier) error {
	return s.rest.ClosePullRequest(ctx, id.Owner, id.Repo, id.Number)
}

// PostComment posts a comment on the pull request.
func (s *Service) PostComment(ctx context.Context, id linkage.PRIdentifier, body string) error {
	return s.rest.CreateComment(ctx, id.Owner, id.Repo, id.Number, body)
}

// ListOpenPRs returns identifiers for every open pull request in the
// repository, for batch audits.
func (s *Service) ListOpenPRs(ctx context.Context, owner, repo string) ([]linkage.PRIdentifier, error) {
	prs, err := s.rest.ListOpenPullRequests(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	ids := make([]linkage.PRIdentifier, 0, len(prs))
	for _, pr := range prs {
		ids = append(ids, linkage.PRIdentifier{Owner: owner, Repo: repo, Number: pr.GetNumber()})
	}
	return ids, nil
}
