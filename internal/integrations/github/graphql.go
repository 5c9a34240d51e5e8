package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const graphQLEndpoint = "https://api.github.com/graphql"

// GraphQLClient provides access to GitHub's GraphQL API. The REST API does
// not expose a PR's natively linked issues; only the GraphQL
// closingIssuesReferences edge carries them.
type GraphQLClient struct {
	httpClient *http.Client
	token      string
	endpoint   string
}

// NewGraphQLClient creates a new GraphQL client with the given token.
func NewGraphQLClient(httpClient *http.Client, token string) *GraphQLClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLClient{
		httpClient: httpClient,
		token:      token,
		endpoint:   graphQLEndpoint,
	}
}

// graphQLRequest represents a GraphQL request payload.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLResponse represents a GraphQL response.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
	} `json:"errors,omitempty"`
}

// execute sends a GraphQL query and returns the response data.
func (c *GraphQLClient) execute(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	reqBody := graphQLRequest{
		Query:     query,
		Variables: variables,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", fmt.Errorf("%v: %w", err, ErrTransient))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Truncate response body to avoid leaking sensitive data in logs
		truncated := string(respBody)
		if len(truncated) > 200 {
			truncated = truncated[:200] + "..."
		}
		err := fmt.Errorf("GraphQL request failed with status %d: %s", resp.StatusCode, truncated)
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%v: %w", err, ErrNotFound)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%v: %w", err, ErrTransient)
		}
		return nil, err
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		first := gqlResp.Errors[0]
		if first.Type == "NOT_FOUND" {
			return nil, fmt.Errorf("GraphQL error: %s: %w", first.Message, ErrNotFound)
		}
		return nil, fmt.Errorf("GraphQL error: %s", first.Message)
	}

	return gqlResp.Data, nil
}

// LinkedIssue is one issue associated with a PR via a closing reference.
type LinkedIssue struct {
	Owner  string
	Repo   string
	Number int
}

// LinkedIssues fetches the issues natively linked to a pull request via
// the closingIssuesReferences edge. At most the first 10 links are
// returned, which matches the GitHub UI's own sidebar.
func (c *GraphQLClient) LinkedIssues(ctx context.Context, owner, repo string, number int) ([]LinkedIssue, error) {
	query := `
		query($owner: String!, $repo: String!, $number: Int!) {
			repository(owner: $owner, name: $repo) {
				pullRequest(number: $number) {
					closingIssuesReferences(first: 10, userLinkedOnly: false) {
						nodes {
							number
							repository {
								name
								owner {
									login
								}
							}
						}
					}
				}
			}
		}
	`
	variables := map[string]interface{}{
		"owner":  owner,
		"repo":   repo,
		"number": number,
	}

	data, err := c.execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	var result struct {
		Repository struct {
			PullRequest struct {
				ClosingIssuesReferences struct {
					Nodes []struct {
						Number     int `json:"number"`
						Repository struct {
							Name  string `json:"name"`
							Owner struct {
								Login string `json:"login"`
							} `json:"owner"`
						} `json:"repository"`
					} `json:"nodes"`
				} `json:"closingIssuesReferences"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse linked issues: %w", err)
	}

	nodes := result.Repository.PullRequest.ClosingIssuesReferences.Nodes
	linked := make([]LinkedIssue, 0, len(nodes))
	for _, n := range nodes {
		linked = append(linked, LinkedIssue{
			Owner:  n.Repository.Owner.Login,
			Repo:   n.Repository.Name,
			Number: n.Number,
		})
	}

	return linked, nil
}
