// Package commands implements the prlink CLI command tree.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/prlinkhq/prlink-bot/internal/core/config"
	"github.com/prlinkhq/prlink-bot/internal/integrations/github"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "prlink",
	Short: "Validate that pull requests are linked to issues",
	Long: `prlink checks that a pull request is linked to an issue, optionally
enforces that the linked issue is assigned to the PR author, and closes the
PR or posts a warning comment when the policy fails.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadDotEnv loads a .env file when present, for local runs.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil && verbose {
		fmt.Println("Loaded .env file")
	}
}

// loadConfiguration loads the config file (resolving org-level inheritance
// through the GitHub contents API) and overlays action inputs.
func loadConfiguration() *config.Config {
	fetcher := func(ref string) ([]byte, error) {
		org, repo, branch, path, err := config.ParseExtendsRef(ref)
		if err != nil {
			return nil, err
		}

		token := os.Getenv("INPUT_GITHUB_TOKEN")
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN required to fetch remote config %s", ref)
		}

		ghClient := github.NewClient(context.Background(), token)
		return ghClient.GetFileContent(context.Background(), org, repo, path, branch)
	}

	var cfg *config.Config
	path := config.FindConfigPath(cfgFile)
	if path != "" {
		loaded, err := config.LoadWithInheritance(path, fetcher)
		if err != nil {
			fmt.Printf("Warning: Failed to load config from %s: %v. Proceeding with defaults and inputs.\n", path, err)
			cfg = config.New()
		} else {
			cfg = loaded
			if verbose {
				fmt.Printf("Loaded config from %s\n", path)
			}
		}
	} else {
		if verbose {
			fmt.Println("No configuration file found. Using defaults and action inputs.")
		}
		cfg = config.New()
	}

	cfg.ApplyActionInputs()
	return cfg
}
