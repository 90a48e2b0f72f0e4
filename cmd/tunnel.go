package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"benefits-setup/internal/cloudflare"
	"benefits-setup/internal/config"
	"benefits-setup/internal/logger"
	"benefits-setup/internal/provision"
)

var (
	tunnelName      string
	tunnelDomain    string
	tunnelSubdomain string
	servicePort     int
	summaryPath     string

	showToken bool

	credentialsFile string
	exportPath      string
)

// tunnelCmd groups the Cloudflare Tunnel commands.
var tunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Manage the Cloudflare Tunnel that publishes the local service",
}

// tunnelSetupCmd provisions the tunnel, its route and DNS record.
var tunnelSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or update the tunnel, ingress route and DNS record",
	Example: `  benefits-setup tunnel setup --domain neevs.io --subdomain benefits
  benefits-setup tunnel setup --no-auto-secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := tunnelSettings(cmd)
		p, err := newProvisioner()
		if err != nil {
			return err
		}

		res, err := p.Run(cmd.Context(), provision.Request{
			TunnelName:  settings.Name,
			Domain:      settings.Domain,
			Subdomain:   settings.Subdomain,
			ServicePort: settings.ServicePort,
		})
		if err != nil {
			return err
		}

		storeSecret(cmd.Context(), settings.SecretName, res.Token)

		if err := provision.WriteSummary(settings.Output, res.Summary); err != nil {
			return err
		}
		logger.Info("[INFO] Config saved to %s\n", settings.Output)
		return nil
	},
}

// tunnelTokenCmd re-fetches the connector token of the existing tunnel.
var tunnelTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch the connector token and store it as a GitHub secret (or print it with --show)",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := tunnelSettings(cmd)
		p, err := newProvisioner()
		if err != nil {
			return err
		}

		tunnel, token, err := p.Token(cmd.Context(), settings.Name)
		if err != nil {
			return err
		}
		logger.Debug("[DEBUG] Token belongs to tunnel %s\n", tunnel.ID)

		if showToken {
			fmt.Println(token)
			return nil
		}
		storeSecret(cmd.Context(), settings.SecretName, token)
		return nil
	},
}

// tunnelExportCmd writes the remote ingress list as a cloudflared config.yml.
var tunnelExportCmd = &cobra.Command{
	Use:   "export-config",
	Short: "Render the tunnel's ingress rules as a cloudflared config.yml",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := tunnelSettings(cmd)
		p, err := newProvisioner()
		if err != nil {
			return err
		}

		tunnel, current, err := p.Ingress(cmd.Context(), settings.Name)
		if err != nil {
			return err
		}
		if len(current.Ingress) == 0 {
			logger.Warn("[WARN] Tunnel %s has no ingress rules, run `tunnel setup` first\n", settings.Name)
		}

		out, err := current.Local(tunnel.ID, credentialsFile).YAML()
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		if exportPath == "" || exportPath == "-" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(exportPath, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportPath, err)
		}
		logger.Info("[INFO] Wrote %s\n", exportPath)
		return nil
	},
}

// tunnelSettings merges explicitly set flags over the loaded settings.
func tunnelSettings(cmd *cobra.Command) config.TunnelSettings {
	s := cfg.Tunnel
	flags := cmd.Flags()
	if flags.Changed("tunnel-name") {
		s.Name = tunnelName
	}
	if flags.Changed("domain") {
		s.Domain = tunnelDomain
	}
	if flags.Changed("subdomain") {
		s.Subdomain = tunnelSubdomain
	}
	if flags.Changed("service-port") {
		s.ServicePort = servicePort
	}
	if flags.Changed("output") {
		s.Output = summaryPath
	}
	return s
}

func newProvisioner() (*provision.Provisioner, error) {
	creds, err := config.LoadCredentials(envFile)
	if err != nil {
		return nil, err
	}
	return provision.New(cloudflare.NewClient(creds.APIToken, creds.AccountID)), nil
}

func init() {
	def := config.Default().Tunnel

	tunnelCmd.PersistentFlags().StringVar(&tunnelName, "tunnel-name", def.Name, "Tunnel name")
	tunnelCmd.PersistentFlags().StringVar(&tunnelDomain, "domain", def.Domain, "Domain (zone) the hostname lives in")
	tunnelCmd.PersistentFlags().StringVar(&tunnelSubdomain, "subdomain", def.Subdomain, "Subdomain routed to the local service")
	tunnelCmd.PersistentFlags().BoolVar(&noAutoSecret, "no-auto-secret", false, "Skip storing the token as a GitHub secret")

	tunnelSetupCmd.Flags().IntVar(&servicePort, "service-port", def.ServicePort, "Local port the tunnel forwards to")
	tunnelSetupCmd.Flags().StringVarP(&summaryPath, "output", "o", def.Output, "Where to write the tunnel summary")

	tunnelTokenCmd.Flags().BoolVar(&showToken, "show", false, "Print the token instead of storing it")

	tunnelExportCmd.Flags().StringVar(&credentialsFile, "credentials-file", "", "credentials-file entry of the generated config")
	tunnelExportCmd.Flags().StringVarP(&exportPath, "file", "f", "-", "Output file, - for stdout")

	tunnelCmd.AddCommand(tunnelSetupCmd, tunnelTokenCmd, tunnelExportCmd)
	rootCmd.AddCommand(tunnelCmd)
}
