package ingress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLocalConfigYAML(t *testing.T) {
	cfg := Reconcile(Config{}, benefitsHost, localService)

	out, err := cfg.Local("6ff42ae2", "/etc/cloudflared/6ff42ae2.json").YAML()
	require.NoError(t, err)

	var decoded LocalConfig
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "6ff42ae2", decoded.Tunnel)
	assert.Equal(t, "/etc/cloudflared/6ff42ae2.json", decoded.CredentialsFile)
	assert.Equal(t, cfg.Ingress, decoded.Ingress)
	assert.Contains(t, string(out), "credentials-file:")
}

func TestLocalConfigOmitsEmptyCredentials(t *testing.T) {
	out, err := Config{Ingress: []Rule{CatchAll()}}.Local("t1", "").YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "credentials-file")
	assert.Contains(t, string(out), "service: http_status:404")
}
