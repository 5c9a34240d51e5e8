package linkage

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
)

// MessageContext is the data exposed to message templates. Configured
// messages may interpolate e.g. {{.PR.Number}}, {{.PR.Author}},
// {{.Issue}} or {{.Branches}}; plain strings pass through untouched.
type MessageContext struct {
	PR       *PRSnapshot
	Issue    *IssueRef
	Branches string
}

// Dispatch maps a verdict onto the single enforcement action the caller
// should execute. Pass and skipped verdicts are no-ops; failures post the
// configured message and, with close_pr_on_failure, close the PR as well.
// Dispatch only renders text; it never touches the host.
func Dispatch(cfg *config.Config, pr *PRSnapshot, v *Verdict) Action {
	if !v.Failed() {
		return Action{Kind: ActionNoOp}
	}

	raw := v.Message
	if raw == "" {
		// Last-resort text so a failure never goes out silent.
		raw = fmt.Sprintf("PR validation failed: %s", v.Reason)
	}

	msg := renderMessage(raw, &MessageContext{
		PR:       pr,
		Issue:    v.Target,
		Branches: strings.Join(cfg.Policy.TargetBranches, ", "),
	})

	if cfg.Enforcement.CloseOnFailure() {
		return Action{Kind: ActionClosePR, Message: msg}
	}
	return Action{Kind: ActionPostComment, Message: msg}
}

// renderMessage runs the configured message through text/template with the
// sprig function map. The user-configured text is what must reach the PR,
// so render problems fall back to the raw string rather than surfacing an
// internal error in the comment.
func renderMessage(raw string, data *MessageContext) string {
	tmpl, err := template.New("message").Funcs(sprig.TxtFuncMap()).Parse(raw)
	if err != nil {
		log.Printf("[dispatch] message template parse failed, using raw text: %v", err)
		return raw
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("[dispatch] message template execute failed, using raw text: %v", err)
		return raw
	}

	return buf.String()
}
