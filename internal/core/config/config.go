// Package config handles loading and merging prlink configuration.
// Settings come from an optional repo-level YAML file, an optional
// org-level parent via "extends", and GitHub Action inputs (INPUT_* env
// variables), with inputs taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	// Extends allows inheriting from a remote config (e.g., "org/repo@branch").
	Extends string `yaml:"extends,omitempty"`

	// Auth holds credentials for the host API.
	Auth AuthConfig `yaml:"auth"`

	// Policy controls which checks run and who is exempt.
	Policy PolicyConfig `yaml:"policy"`

	// Enforcement controls what happens when a check fails.
	Enforcement EnforcementConfig `yaml:"enforcement"`

	// Workflow is a preset workflow name (e.g., "pr-check").
	Workflow string `yaml:"workflow,omitempty"`

	// Steps is a custom list of pipeline steps (overrides workflow).
	Steps []string `yaml:"steps,omitempty"`

	// BotUsers lists additional usernames treated as bots on top of the
	// host's own account-type flag.
	BotUsers []string `yaml:"bot_users,omitempty"`
}

// AuthConfig holds host API credentials.
type AuthConfig struct {
	Token string `yaml:"token,omitempty"`
}

// PolicyConfig holds the validation rules.
type PolicyConfig struct {
	// SkipUsers are exempt from all checks. Matched case-sensitively.
	SkipUsers []string `yaml:"skip_users,omitempty"`

	// CheckIssueReference enables the description-reference fallback when
	// the host reports no linked issues.
	CheckIssueReference bool `yaml:"check_issue_reference"`

	// RequireAssignee demands the linked issue be assigned to the PR author.
	RequireAssignee bool `yaml:"require_assignee"`

	// TargetBranches restricts which base branches PRs may target.
	// Empty means every branch is allowed.
	TargetBranches []string `yaml:"target_branches,omitempty"`
}

// EnforcementConfig holds failure handling settings.
type EnforcementConfig struct {
	// ClosePROnFailure closes failing PRs in addition to commenting.
	// Unset means true.
	ClosePROnFailure *bool `yaml:"close_pr_on_failure,omitempty"`

	NoIssueMessage          string `yaml:"no_issue_message,omitempty"`
	AssigneeMismatchMessage string `yaml:"assignee_mismatch_message,omitempty"`
	InvalidBranchMessage    string `yaml:"invalid_branch_message,omitempty"`
}

// CloseOnFailure reports whether failing PRs should be closed.
func (e EnforcementConfig) CloseOnFailure() bool {
	if e.ClosePROnFailure == nil {
		return true
	}
	return *e.ClosePROnFailure
}

// New returns an empty configuration with defaults applied.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a config file from the given path and expands environment
// variables in its content.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parseRaw(data)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}

// parseRaw expands environment variables in raw YAML and unmarshals it.
// Defaults are not applied.
func parseRaw(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// LoadWithInheritance loads a config and resolves the 'extends' chain.
// The fetcher function is used to retrieve remote configs.
func LoadWithInheritance(path string, fetcher func(ref string) ([]byte, error)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Extends == "" {
		return cfg, nil
	}

	parentData, err := fetcher(cfg.Extends)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parent config '%s': %w", cfg.Extends, err)
	}

	parentCfg, err := parseRaw(parentData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parent config: %w", err)
	}

	// Merge: child overrides parent
	merged := mergeConfigs(parentCfg, cfg)
	merged.applyDefaults()

	return merged, nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{
		".github/prlink.yaml",
		".github/prlink.yml",
		".prlink.yaml",
		".prlink.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// ApplyActionInputs overlays GitHub Action inputs (INPUT_* environment
// variables) onto the configuration. Inputs win over file values.
// Boolean inputs accept true/1/yes/on (case-insensitive); anything else
// is false.
func (c *Config) ApplyActionInputs() {
	if v := actionInput("github_token"); v != "" {
		c.Auth.Token = v
	} else if v := os.Getenv("GITHUB_TOKEN"); v != "" && c.Auth.Token == "" {
		c.Auth.Token = v
	}

	if v := actionInput("skip_users"); v != "" {
		c.Policy.SkipUsers = splitList(v)
	}
	if v := actionInput("check_issue_reference"); v != "" {
		c.Policy.CheckIssueReference = parseBool(v)
	}
	if v := actionInput("require_assignee"); v != "" {
		c.Policy.RequireAssignee = parseBool(v)
	}
	if v := actionInput("target_branches"); v != "" {
		c.Policy.TargetBranches = splitList(v)
	}

	if v := actionInput("close_pr_on_failure"); v != "" {
		b := parseBool(v)
		c.Enforcement.ClosePROnFailure = &b
	}
	if v := actionInput("no_issue_message"); v != "" {
		c.Enforcement.NoIssueMessage = v
	}
	if v := actionInput("assignee_mismatch_message"); v != "" {
		c.Enforcement.AssigneeMismatchMessage = v
	}
	if v := actionInput("invalid_branch_message"); v != "" {
		c.Enforcement.InvalidBranchMessage = v
	}
}

// Validate reports configuration errors that must stop the run before
// any evaluation happens.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.Token) == "" {
		return fmt.Errorf("required input 'github_token' is not provided")
	}
	return nil
}

// applyDefaults sets default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Enforcement.NoIssueMessage == "" {
		c.Enforcement.NoIssueMessage = "This PR must be linked to an issue before it can be merged."
	}
	if c.Enforcement.AssigneeMismatchMessage == "" {
		c.Enforcement.AssigneeMismatchMessage = "The linked issue must be assigned to the PR author before this PR can be merged."
	}
	if c.Enforcement.InvalidBranchMessage == "" {
		c.Enforcement.InvalidBranchMessage = "PR must target one of the allowed branches: {{.Branches}}"
	}
}

// mergeConfigs merges a child config onto a parent config.
// Non-zero values in child override parent.
func mergeConfigs(parent, child *Config) *Config {
	result := *parent

	if child.Workflow != "" {
		result.Workflow = child.Workflow
	}
	if len(child.Steps) > 0 {
		result.Steps = child.Steps
	}
	if child.Auth.Token != "" {
		result.Auth.Token = child.Auth.Token
	}

	if len(child.Policy.SkipUsers) > 0 {
		result.Policy.SkipUsers = child.Policy.SkipUsers
	}
	if len(child.Policy.TargetBranches) > 0 {
		result.Policy.TargetBranches = child.Policy.TargetBranches
	}
	// Booleans: always take the child value so it can override parent
	// true -> false and vice versa.
	result.Policy.CheckIssueReference = child.Policy.CheckIssueReference
	result.Policy.RequireAssignee = child.Policy.RequireAssignee

	if child.Enforcement.ClosePROnFailure != nil {
		result.Enforcement.ClosePROnFailure = child.Enforcement.ClosePROnFailure
	}
	if child.Enforcement.NoIssueMessage != "" {
		result.Enforcement.NoIssueMessage = child.Enforcement.NoIssueMessage
	}
	if child.Enforcement.AssigneeMismatchMessage != "" {
		result.Enforcement.AssigneeMismatchMessage = child.Enforcement.AssigneeMismatchMessage
	}
	if child.Enforcement.InvalidBranchMessage != "" {
		result.Enforcement.InvalidBranchMessage = child.Enforcement.InvalidBranchMessage
	}

	if len(child.BotUsers) > 0 {
		result.BotUsers = child.BotUsers
	}

	return &result
}

// ParseExtendsRef parses "org/repo@branch" into components.
func ParseExtendsRef(ref string) (org, repo, branch, path string, err error) {
	// Format: org/repo@branch or org/repo@branch:path
	parts := strings.SplitN(ref, "@", 2)
	if len(parts) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo@branch)", ref)
	}

	orgRepo := strings.SplitN(parts[0], "/", 2)
	if len(orgRepo) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo)", ref)
	}

	org = orgRepo[0]
	repo = orgRepo[1]

	branchPath := strings.SplitN(parts[1], ":", 2)
	branch = branchPath[0]
	if len(branchPath) == 2 {
		path = branchPath[1]
	} else {
		path = ".github/prlink.yaml" // default path
	}

	return org, repo, branch, path, nil
}

// actionInput reads a GitHub Action input from the environment.
func actionInput(name string) string {
	return os.Getenv("INPUT_" + strings.ToUpper(name))
}

// parseBool interprets Action-style boolean strings.
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// splitList parses a comma-separated input into trimmed, non-empty items.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
