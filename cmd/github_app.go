package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"benefits-setup/internal/ghcli"
	"benefits-setup/internal/githubapp"
	"benefits-setup/internal/prompt"
)

var (
	appName         string
	callbackPort    int
	callbackTimeout time.Duration
)

// githubAppCmd registers the workflow GitHub App via the manifest flow.
var githubAppCmd = &cobra.Command{
	Use:   "github-app",
	Short: "Create the GitHub App via the manifest flow and store APP_ID / APP_PRIVATE_KEY",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := cfg.GitHubApp
		if cmd.Flags().Changed("name") {
			settings.Name = appName
		}
		if cmd.Flags().Changed("port") {
			if callbackPort < 1 || callbackPort > 65535 {
				return fmt.Errorf("--port must be between 1 and 65535, got %d", callbackPort)
			}
			settings.CallbackPort = callbackPort
		}
		if cmd.Flags().Changed("timeout") && (callbackTimeout <= 0 || callbackTimeout > 300*time.Second) {
			return fmt.Errorf("--timeout must be between 1s and 5m, got %s", callbackTimeout)
		}

		gh := ghcli.New(cfg.Repo)
		// The manifest code is exchanged through gh.
		if !gh.Authenticated(cmd.Context()) {
			return fmt.Errorf("%w: run `gh auth login` first", ghcli.ErrNotAuthenticated)
		}

		flow := &githubapp.Flow{
			Settings:   settings,
			GitHub:     gh,
			Prompt:     prompt.Stdio(),
			AutoSecret: !noAutoSecret,
		}
		if cmd.Flags().Changed("timeout") {
			flow.Timeout = callbackTimeout
		}

		_, err := flow.Run(cmd.Context())
		return err
	},
}

func init() {
	githubAppCmd.Flags().StringVar(&appName, "name", "", "App name (default from settings)")
	githubAppCmd.Flags().IntVar(&callbackPort, "port", 0, "Local callback port (default from settings)")
	githubAppCmd.Flags().DurationVar(&callbackTimeout, "timeout", 0, "How long to wait for the redirect (default from settings, at most 5m)")
	githubAppCmd.Flags().BoolVar(&noAutoSecret, "no-auto-secret", false, "Print the credentials instead of storing them as secrets")

	rootCmd.AddCommand(githubAppCmd)
}
