package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"

	"benefits-setup/internal/logger"
	"benefits-setup/internal/prompt"
)

// releaseSlug is where benefits-setup binaries are published.
const releaseSlug = "agentivo/student-benefits-hub"

var (
	selfUpgradeRequested bool
	selfUpgradeCheckOnly bool
	selfUpgradeAutoYes   bool
)

func setupSelfUpgrade() {
	rootCmd.PersistentFlags().BoolVar(&selfUpgradeRequested, "self-upgrade", false, "Upgrade benefits-setup to the latest release and exit")
	rootCmd.PersistentFlags().BoolVar(&selfUpgradeCheckOnly, "self-upgrade-check", false, "Only check whether a newer release is available")
	rootCmd.PersistentFlags().BoolVar(&selfUpgradeAutoYes, "self-upgrade-yes", false, "Skip the confirmation prompt of --self-upgrade")

	existingPreRun := rootCmd.PersistentPreRunE
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if existingPreRun != nil {
			if err := existingPreRun(cmd, args); err != nil {
				return err
			}
		}
		return handleSelfUpgradeFlags(cmd.Context())
	}
}

func handleSelfUpgradeFlags(ctx context.Context) error {
	if !selfUpgradeRequested && !selfUpgradeCheckOnly {
		return nil
	}
	if err := runSelfUpgrade(ctx, selfUpgradeCheckOnly, selfUpgradeAutoYes); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}

func currentVersion() (semver.Version, error) {
	v := strings.TrimSpace(strings.TrimPrefix(Version, "v"))
	if v == "" || v == "dev" {
		return semver.Version{}, errors.New("self-upgrade is only available for release builds")
	}
	current, err := semver.Parse(v)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid current version %q: %w", Version, err)
	}
	return current, nil
}

func runSelfUpgrade(ctx context.Context, checkOnly, autoYes bool) error {
	current, err := currentVersion()
	if err != nil {
		return err
	}
	logger.Info("[INFO] Current version: v%s\n", current)

	latest, found, err := selfupdate.DetectLatest(releaseSlug)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no releases found for %s", releaseSlug)
	}
	if !latest.Version.GT(current) {
		logger.Success("[OK] benefits-setup is already up to date (v%s)\n", latest.Version)
		return nil
	}

	logger.Info("[INFO] New release found: v%s --> v%s\n", current, latest.Version)
	if checkOnly {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}

	p := prompt.Stdio()
	p.Printf("\n%s\n", prompt.KeyValues(
		[2]string{"Current exe", exe},
		[2]string{"Target", runtime.GOOS + "/" + runtime.GOARCH},
		[2]string{"Download", latest.AssetURL},
	))

	if !autoYes {
		answer, err := p.Ask(ctx, "Replace the current binary with the new release? [Y/n]")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		answer = strings.ToLower(answer)
		if answer != "" && answer != "y" && answer != "yes" {
			logger.Warn("[WARN] Update cancelled\n")
			return nil
		}
	}

	logger.Info("[INFO] Downloading release...\n")
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("self-upgrade failed: %w", err)
	}
	logger.Success("[OK] Updated benefits-setup to v%s\n", latest.Version)
	return nil
}
