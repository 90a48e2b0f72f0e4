package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"benefits-setup/internal/config"
	"benefits-setup/internal/logger"
)

// Version is set at build time with -ldflags "-X benefits-setup/cmd.Version=1.2.3".
var Version = "dev"

var (
	// debug indicates whether debug logging should be enabled (--debug).
	debug bool
	// configPath is the project settings file (--config).
	configPath string
	// envFile is the dotenv file holding Cloudflare credentials (--env-file).
	envFile string
	// repo overrides the repository secrets are written to (--repo).
	repo string
	// noAutoSecret disables storing secrets through gh (--no-auto-secret).
	noAutoSecret bool

	// cfg is loaded once per invocation, before any subcommand runs.
	cfg config.Config
)

// rootCmd is the base command for the CLI tool `benefits-setup`.
var rootCmd = &cobra.Command{
	Use:   "benefits-setup",
	Short: "Provision the infrastructure and credentials of the Student Benefits Hub",
	Long: `benefits-setup replaces the project's one-shot setup scripts:
it publishes the local service through a Cloudflare Tunnel, registers the
GitHub App used by the workflows, walks through Reddit API app creation and
installs the cloudflared connector.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE runs before any subcommand: set up logging, then load settings.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(debug)
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("repo") {
			loaded.Repo = repo
		}
		cfg = loaded
		logger.Debug("[DEBUG] Loaded settings from %s\n", configPath)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the command tree and exits non-zero on failure. An interrupt
// cancels the running command and exits cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if interrupted {
		fmt.Fprintln(os.Stderr, "\n\nCancelled.")
		os.Exit(0)
	}
	if err != nil {
		logger.Error("[ERROR] %v\n", err)
		if errors.Is(err, config.ErrMissingCredentials) {
			logger.Info("[INFO] Export them or put them in %s\n", envFile)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the settings file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Dotenv file with CLOUDFLARE_API_TOKEN and CLOUDFLARE_ACCOUNT_ID")
	rootCmd.PersistentFlags().StringVar(&repo, "repo", "", "Repository (owner/name) secrets are written to (default: the current repository)")

	setupSelfUpgrade()
}
