package text

import (
	"fmt"
	"strings"
)

// BotMarker is a hidden HTML comment identifying comments posted by
// prlink-bot, so reruns can recognize their own output.
const BotMarker = "<!-- prlink-bot -->"

const footer = "_Posted by prlink-bot. A maintainer can re-run the check after the PR is updated._"

// BuildCommentBody wraps a rendered policy message into the comment body
// posted on the pull request: hidden marker, the message, and a footer.
func BuildCommentBody(message string) string {
	var sb strings.Builder
	sb.WriteString(BotMarker)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(message))
	sb.WriteString("---\n")
	sb.WriteString(footer)
	sb.WriteString("\n")

	return sb.String()
}

// HasBotMarker reports whether body was posted by prlink-bot.
func HasBotMarker(body string) bool {
	return strings.Contains(body, BotMarker)
}

// Excerpt shortens s to at most max runes for log lines, collapsing
// newlines so a single log entry stays on one line.
func Excerpt(s string, max int) string {
	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	return string(runes[:max]) + "..."
}
