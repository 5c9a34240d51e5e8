package linkage

import (
	"reflect"
	"testing"
)

func TestParseRefs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []IssueRef
	}{
		{"empty text", "", nil},
		{"no references", "just a regular description", nil},
		{"simple close", "Closes #123", []IssueRef{{Number: 123}}},
		{"repeated keyword", "Resolves #10, resolves #123", []IssueRef{{Number: 10}, {Number: 123}}},
		{"colon after keyword", "Closes: #10", []IssueRef{{Number: 10}}},
		{"uppercase keyword", "CLOSES #10", []IssueRef{{Number: 10}}},
		{"bare reference without keyword", "see #123", nil},
		{"keyword inside word", "disclosed #5", nil},
		{"fix variant", "fixed #8", []IssueRef{{Number: 8}}},
		{"comma list after one keyword", "closes #1, #2,#3", []IssueRef{{Number: 1}, {Number: 2}, {Number: 3}}},
		{"mixed keywords", "closes #1, fixes #2", []IssueRef{{Number: 1}, {Number: 2}}},
		{"cross-repo reference", "closes: a-b/c_d#7", []IssueRef{{Repo: "a-b/c_d", Number: 7}}},
		{"mixed same and cross repo", "resolves owner/repo#3 #4", []IssueRef{{Repo: "owner/repo", Number: 3}, {Number: 4}}},
		{"leading zeros", "Closes #007", []IssueRef{{Number: 7}}},
		{"non-numeric id", "closes #abc", nil},
		{"duplicates preserved", "fixes #5, #5", []IssueRef{{Number: 5}, {Number: 5}}},
		{"clause ends at non-token", "closes #1 and also #2", []IssueRef{{Number: 1}}},
		{"multiline", "First line.\nFixes #42\nResolved #43", []IssueRef{{Number: 42}, {Number: 43}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRefs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRefs(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseRefsAllKeywords(t *testing.T) {
	keywords := []string{"close", "closes", "closed", "fix", "fixes", "fixed", "resolve", "resolves", "resolved"}

	for _, kw := range keywords {
		t.Run(kw, func(t *testing.T) {
			got := ParseRefs(kw + " #9")
			want := []IssueRef{{Number: 9}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ParseRefs(%q #9) = %v, want %v", kw, got, want)
			}
		})
	}
}

func TestIssueRefString(t *testing.T) {
	if got := (IssueRef{Number: 12}).String(); got != "#12" {
		t.Errorf("Expected #12, got %s", got)
	}
	if got := (IssueRef{Repo: "org/repo", Number: 12}).String(); got != "org/repo#12" {
		t.Errorf("Expected org/repo#12, got %s", got)
	}
}
