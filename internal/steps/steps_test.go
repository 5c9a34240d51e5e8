package steps

import (
	"context"
	"errors"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
	"github.com/prlinkhq/prlink-bot/internal/linkage"
)

// stubHost is a function-field fake for the pipeline.Host surface.
type stubHost struct {
	snapshotFunc func(id linkage.PRIdentifier) (*linkage.PRSnapshot, error)
	fetchFunc    func(base linkage.PRIdentifier, ref linkage.IssueRef) (*linkage.IssueSnapshot, error)
	closeFunc    func(id linkage.PRIdentifier) error
	commentFunc  func(id linkage.PRIdentifier, body string) error

	snapshotCalls int
	fetchCalls    int
	closeCalls    int
	commentCalls  int
	comments      []string
}

func (h *stubHost) SnapshotPR(ctx context.Context, id linkage.PRIdentifier) (*linkage.PRSnapshot, error) {
	h.snapshotCalls++
	if h.snapshotFunc != nil {
		return h.snapshotFunc(id)
	}
	return nil, errors.New("no snapshot configured")
}

func (h *stubHost) FetchIssue(ctx context.Context, base linkage.PRIdentifier, ref linkage.IssueRef) (*linkage.IssueSnapshot, error) {
	h.fetchCalls++
	if h.fetchFunc != nil {
		return h.fetchFunc(base, ref)
	}
	return nil, errors.New("no issues configured")
}

func (h *stubHost) ClosePR(ctx context.Context, id linkage.PRIdentifier) error {
	h.closeCalls++
	if h.closeFunc != nil {
		return h.closeFunc(id)
	}
	return nil
}

func (h *stubHost) PostComment(ctx context.Context, id linkage.PRIdentifier, body string) error {
	h.commentCalls++
	h.comments = append(h.comments, body)
	if h.commentFunc != nil {
		return h.commentFunc(id, body)
	}
	return nil
}

func newTestContext(action string, cfg *config.Config) *pipeline.Context {
	if cfg == nil {
		cfg = config.New()
	}
	id := linkage.PRIdentifier{Owner: "acme", Repo: "widgets", Number: 42}
	return pipeline.NewContext(context.Background(), id, action, cfg)
}

func openPR() *linkage.PRSnapshot {
	return &linkage.PRSnapshot{
		Owner:      "acme",
		Repo:       "widgets",
		Number:     42,
		Author:     "bob",
		BaseBranch: "main",
		State:      "open",
	}
}
