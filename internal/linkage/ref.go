package linkage

import (
	"regexp"
	"strconv"
)

// Closing-keyword grammar for issue references in PR descriptions.
// A clause is a keyword ("closes", "fixes", "resolves" and their forms),
// an optional colon, optional whitespace, then one or more
// comma/whitespace-separated "[owner/repo]#123" tokens. The clause ends at
// the first thing that is not a token, so "closes #1, #2 and more" yields
// two references and "see #3" yields none.
var (
	refClausePattern = regexp.MustCompile(`(?i)\b(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?):?\s*((?:[A-Za-z0-9_-]+/[A-Za-z0-9_-]+)?#\d+\b(?:[\s,]+(?:[A-Za-z0-9_-]+/[A-Za-z0-9_-]+)?#\d+\b)*)`)
	refTokenPattern  = regexp.MustCompile(`([A-Za-z0-9_-]+/[A-Za-z0-9_-]+)?#(\d+)\b`)
)

// ParseRefs scans free-form text and returns the issue references it
// introduces with closing keywords, in order of appearance. Duplicates are
// preserved. Text with no matches, including empty text, returns nil.
func ParseRefs(text string) []IssueRef {
	if text == "" {
		return nil
	}

	clauses := refClausePattern.FindAllStringSubmatch(text, -1)
	if len(clauses) == 0 {
		return nil
	}

	var refs []IssueRef
	for _, clause := range clauses {
		for _, token := range refTokenPattern.FindAllStringSubmatch(clause[1], -1) {
			number, err := strconv.Atoi(token[2])
			if err != nil || number <= 0 {
				// Out-of-range or zero identifiers are not references.
				continue
			}
			refs = append(refs, IssueRef{Repo: token[1], Number: number})
		}
	}

	return refs
}
