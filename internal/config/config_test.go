package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, existed := os.LookupEnv(key)
	if existed {
		t.Cleanup(func() { _ = os.Setenv(key, original) })
	} else {
		t.Cleanup(func() { _ = os.Unsetenv(key) })
	}
	_ = os.Unsetenv(key)
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "student-benefits-hub", cfg.Tunnel.Name)
	assert.Equal(t, "neevs.io", cfg.Tunnel.Domain)
	assert.Equal(t, "benefits", cfg.Tunnel.Subdomain)
	assert.Equal(t, 8080, cfg.Tunnel.ServicePort)
	assert.Equal(t, "STUDENT_BENEFITS_TUNNEL_TOKEN", cfg.Tunnel.SecretName)
	assert.Equal(t, 3456, cfg.GitHubApp.CallbackPort)
	assert.Equal(t, 120, cfg.GitHubApp.CallbackTimeout)
	assert.Equal(t, "read", cfg.GitHubApp.Permissions["models"])
	assert.Equal(t, "latest", cfg.Cloudflared.Version)
}

func TestLoadConfigOverridesAndNormalizes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "benefits-setup.yaml", `
repo: agentivo/student-benefits-hub
tunnel:
  subdomain: staging
  service_port: 99999
github_app:
  name: hub-models
  permissions:
    models: read
  callback_timeout_seconds: 900
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "agentivo/student-benefits-hub", cfg.Repo)
	assert.Equal(t, "staging", cfg.Tunnel.Subdomain)
	assert.Equal(t, "neevs.io", cfg.Tunnel.Domain)
	assert.Equal(t, 8080, cfg.Tunnel.ServicePort, "out-of-range port falls back to default")
	assert.Equal(t, "hub-models", cfg.GitHubApp.Name)
	assert.Equal(t, map[string]string{"models": "read"}, cfg.GitHubApp.Permissions)
	assert.Equal(t, 300, cfg.GitHubApp.CallbackTimeout)
	assert.Equal(t, []string{}, cfg.GitHubApp.Events)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "tunnel: [unterminated\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("CLOUDFLARE_API_TOKEN", "env-token")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "env-account")

	creds, err := LoadCredentials(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, Credentials{APIToken: "env-token", AccountID: "env-account"}, creds)
}

func TestLoadCredentialsFromDotenvFile(t *testing.T) {
	unsetEnv(t, "CLOUDFLARE_API_TOKEN")
	unsetEnv(t, "CLOUDFLARE_ACCOUNT_ID")
	path := writeFile(t, t.TempDir(), ".env", "CLOUDFLARE_API_TOKEN=file-token\nCLOUDFLARE_ACCOUNT_ID=file-account\n")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", creds.APIToken)
	assert.Equal(t, "file-account", creds.AccountID)
}

func TestLoadCredentialsEnvironmentWinsOverDotenv(t *testing.T) {
	t.Setenv("CLOUDFLARE_API_TOKEN", "env-token")
	unsetEnv(t, "CLOUDFLARE_ACCOUNT_ID")
	path := writeFile(t, t.TempDir(), ".env", "CLOUDFLARE_API_TOKEN=file-token\nCLOUDFLARE_ACCOUNT_ID=file-account\n")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", creds.APIToken)
	assert.Equal(t, "file-account", creds.AccountID)
}

func TestLoadCredentialsMissing(t *testing.T) {
	unsetEnv(t, "CLOUDFLARE_API_TOKEN")
	unsetEnv(t, "CLOUDFLARE_ACCOUNT_ID")

	_, err := LoadCredentials(filepath.Join(t.TempDir(), ".env"))
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
