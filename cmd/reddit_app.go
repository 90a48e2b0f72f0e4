package cmd

import (
	"github.com/spf13/cobra"

	"benefits-setup/internal/ghcli"
	"benefits-setup/internal/prompt"
	"benefits-setup/internal/reddit"
)

// redditAppCmd walks through creating the Reddit script app.
var redditAppCmd = &cobra.Command{
	Use:   "reddit-app",
	Short: "Guide through Reddit API app creation and store REDDIT_CLIENT_ID / REDDIT_CLIENT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := &reddit.Walkthrough{
			Settings:   cfg.Reddit,
			Secrets:    ghcli.New(cfg.Repo),
			Prompt:     prompt.Stdio(),
			AutoSecret: !noAutoSecret,
		}
		_, err := w.Run(cmd.Context())
		return err
	},
}

func init() {
	redditAppCmd.Flags().BoolVar(&noAutoSecret, "no-auto-secret", false, "Only print the gh secret commands")

	rootCmd.AddCommand(redditAppCmd)
}
