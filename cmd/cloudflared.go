package cmd

import (
	"github.com/spf13/cobra"

	"benefits-setup/internal/installer"
	"benefits-setup/internal/state"
)

var (
	cloudflaredVersion string
	cloudflaredBinDir  string
	forceInstall       bool
)

// cloudflaredCmd manages the tunnel connector binary.
var cloudflaredCmd = &cobra.Command{
	Use:   "cloudflared",
	Short: "Install or remove the cloudflared tunnel connector",
}

// cloudflaredInstallCmd installs cloudflared from its GitHub releases.
var cloudflaredInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install cloudflared from GitHub releases",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := cfg.Cloudflared
		if cmd.Flags().Changed("version") {
			settings.Version = cloudflaredVersion
		}
		if cmd.Flags().Changed("bin-dir") {
			settings.BinDir = cloudflaredBinDir
		}

		st, err := state.LoadState(settings.StateFile)
		if err != nil {
			return err
		}

		res, err := installer.New().InstallCloudflared(cmd.Context(), installer.Options{
			Version: settings.Version,
			BinDir:  settings.BinDir,
			Force:   forceInstall,
		}, st)
		if err != nil {
			return err
		}
		if res.Skipped {
			return nil
		}
		return state.SaveState(settings.StateFile, st)
	},
}

// cloudflaredUninstallCmd removes a cloudflared installed by this tool.
var cloudflaredUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the cloudflared binary installed by benefits-setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := state.LoadState(cfg.Cloudflared.StateFile)
		if err != nil {
			return err
		}
		if err := installer.Uninstall(installer.CloudflaredTool, st); err != nil {
			return err
		}
		return state.SaveState(cfg.Cloudflared.StateFile, st)
	},
}

func init() {
	cloudflaredInstallCmd.Flags().StringVar(&cloudflaredVersion, "version", "", "Release tag or latest (default from settings)")
	cloudflaredInstallCmd.Flags().StringVar(&cloudflaredBinDir, "bin-dir", "", "Install directory (default from settings)")
	cloudflaredInstallCmd.Flags().BoolVar(&forceInstall, "force", false, "Reinstall even if the recorded version is current")

	cloudflaredCmd.AddCommand(cloudflaredInstallCmd, cloudflaredUninstallCmd)
	rootCmd.AddCommand(cloudflaredCmd)
}
