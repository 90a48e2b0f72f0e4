package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the project settings file looked up in the working directory.
const DefaultPath = "benefits-setup.yaml"

const (
	minCallbackTimeout = 120
	maxCallbackTimeout = 300
)

// Default returns the settings used when benefits-setup.yaml is absent.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Tunnel: TunnelSettings{
			Name:        "student-benefits-hub",
			Domain:      "neevs.io",
			Subdomain:   "benefits",
			ServicePort: 8080,
			SecretName:  "STUDENT_BENEFITS_TUNNEL_TOKEN",
			Output:      "tunnel.json",
		},
		GitHubApp: GitHubAppSettings{
			Name:     "student-benefits-hub-bot",
			Homepage: "https://agentivo.github.io/student-benefits-hub/",
			Permissions: map[string]string{
				"contents":      "write",
				"issues":        "write",
				"pull_requests": "write",
				"models":        "read",
			},
			Events:          []string{},
			CallbackPort:    3456,
			CallbackTimeout: minCallbackTimeout,
			AppIDSecret:     "APP_ID",
			PrivateKey:      "APP_PRIVATE_KEY",
		},
		Reddit: RedditSettings{
			AppName:            "student-benefits-hub",
			RedirectURI:        "https://localhost",
			ClientIDSecret:     "REDDIT_CLIENT_ID",
			ClientSecretSecret: "REDDIT_CLIENT_SECRET",
		},
		Cloudflared: CloudflaredSettings{
			Version:   "latest",
			BinDir:    filepath.Join(home, ".local", "bin"),
			StateFile: "state.json",
		},
	}
}

// LoadConfig reads the YAML settings file at path on top of Default().
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	// yaml.v3 merges into non-nil maps; the file's permission set replaces the default one.
	cfg.GitHubApp.Permissions = nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	normalize(&cfg)
	return cfg, nil
}

// normalize restores defaults for fields a partial file zeroed out and clamps
// the callback timeout to the supported window.
func normalize(cfg *Config) {
	def := Default()

	if cfg.Tunnel.Name == "" {
		cfg.Tunnel.Name = def.Tunnel.Name
	}
	if cfg.Tunnel.Domain == "" {
		cfg.Tunnel.Domain = def.Tunnel.Domain
	}
	if cfg.Tunnel.Subdomain == "" {
		cfg.Tunnel.Subdomain = def.Tunnel.Subdomain
	}
	if cfg.Tunnel.ServicePort <= 0 || cfg.Tunnel.ServicePort > 65535 {
		cfg.Tunnel.ServicePort = def.Tunnel.ServicePort
	}
	if cfg.Tunnel.SecretName == "" {
		cfg.Tunnel.SecretName = def.Tunnel.SecretName
	}
	if cfg.Tunnel.Output == "" {
		cfg.Tunnel.Output = def.Tunnel.Output
	}

	if cfg.GitHubApp.Name == "" {
		cfg.GitHubApp.Name = def.GitHubApp.Name
	}
	if cfg.GitHubApp.Homepage == "" {
		cfg.GitHubApp.Homepage = def.GitHubApp.Homepage
	}
	if len(cfg.GitHubApp.Permissions) == 0 {
		cfg.GitHubApp.Permissions = def.GitHubApp.Permissions
	}
	if cfg.GitHubApp.Events == nil {
		cfg.GitHubApp.Events = []string{}
	}
	if cfg.GitHubApp.CallbackPort <= 0 || cfg.GitHubApp.CallbackPort > 65535 {
		cfg.GitHubApp.CallbackPort = def.GitHubApp.CallbackPort
	}
	switch {
	case cfg.GitHubApp.CallbackTimeout < minCallbackTimeout:
		cfg.GitHubApp.CallbackTimeout = minCallbackTimeout
	case cfg.GitHubApp.CallbackTimeout > maxCallbackTimeout:
		cfg.GitHubApp.CallbackTimeout = maxCallbackTimeout
	}
	if cfg.GitHubApp.AppIDSecret == "" {
		cfg.GitHubApp.AppIDSecret = def.GitHubApp.AppIDSecret
	}
	if cfg.GitHubApp.PrivateKey == "" {
		cfg.GitHubApp.PrivateKey = def.GitHubApp.PrivateKey
	}

	if cfg.Reddit.AppName == "" {
		cfg.Reddit.AppName = def.Reddit.AppName
	}
	if cfg.Reddit.RedirectURI == "" {
		cfg.Reddit.RedirectURI = def.Reddit.RedirectURI
	}
	if cfg.Reddit.ClientIDSecret == "" {
		cfg.Reddit.ClientIDSecret = def.Reddit.ClientIDSecret
	}
	if cfg.Reddit.ClientSecretSecret == "" {
		cfg.Reddit.ClientSecretSecret = def.Reddit.ClientSecretSecret
	}

	if cfg.Cloudflared.Version == "" {
		cfg.Cloudflared.Version = def.Cloudflared.Version
	}
	if cfg.Cloudflared.BinDir == "" {
		cfg.Cloudflared.BinDir = def.Cloudflared.BinDir
	}
	if cfg.Cloudflared.StateFile == "" {
		cfg.Cloudflared.StateFile = def.Cloudflared.StateFile
	}
}
