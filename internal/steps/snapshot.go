package steps

import (
	"fmt"
	"log"
	"strings"

	"github.com/prlinkhq/prlink-bot/internal/core/pipeline"
)

// Snapshot fetches the pull request and its linked issues into the
// pipeline context. Batch and validate flows pre-seed the snapshot, in
// which case no fetch happens.
type Snapshot struct {
	host pipeline.Host
}

// NewSnapshot creates a new snapshot step.
func NewSnapshot(deps *pipeline.Dependencies) *Snapshot {
	return &Snapshot{
		host: deps.Host,
	}
}

// Name returns the step name.
func (s *Snapshot) Name() string {
	return "snapshot"
}

// Run ensures the context holds a PR snapshot and weeds out PRs that are
// no longer open.
func (s *Snapshot) Run(ctx *pipeline.Context) error {
	if ctx.PR == nil {
		if s.host == nil {
			return fmt.Errorf("no host client configured and no snapshot provided")
		}
		pr, err := s.host.SnapshotPR(ctx.Ctx, ctx.ID)
		if err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", ctx.ID, err)
		}
		ctx.PR = pr
		log.Printf("[snapshot] %s: author=%q base=%q linked=%d",
			ctx.ID, pr.Author, pr.BaseBranch, len(pr.LinkedIssues))
	}

	// Configured bot users count as bots on top of the host's own
	// account-type flag.
	if !ctx.PR.IsBot && isBotAuthor(ctx.PR.Author, ctx.Config.BotUsers) {
		ctx.PR.IsBot = true
	}

	if ctx.PR.State == "closed" {
		log.Printf("[snapshot] %s is already closed, nothing to check", ctx.ID)
		ctx.Result.Skipped = true
		ctx.Result.SkipReason = "pull request is closed"
		return pipeline.ErrSkipPipeline
	}

	return nil
}

// isBotAuthor returns true if the username matches a known bot pattern or
// is in the user-configured bot_users list.
func isBotAuthor(author string, configBotUsers []string) bool {
	if strings.HasSuffix(author, "[bot]") {
		return true
	}
	for _, u := range configBotUsers {
		if strings.EqualFold(author, u) {
			return true
		}
	}
	return false
}
