package ingress

import "gopkg.in/yaml.v3"

// LocalConfig is the config.yml shape cloudflared reads when a tunnel runs
// with a locally managed configuration.
type LocalConfig struct {
	Tunnel          string `yaml:"tunnel"`
	CredentialsFile string `yaml:"credentials-file,omitempty"`
	Ingress         []Rule `yaml:"ingress"`
}

// Local converts c into a cloudflared config.yml for tunnelID.
func (c Config) Local(tunnelID, credentialsFile string) LocalConfig {
	rules := make([]Rule, len(c.Ingress))
	copy(rules, c.Ingress)
	return LocalConfig{
		Tunnel:          tunnelID,
		CredentialsFile: credentialsFile,
		Ingress:         rules,
	}
}

// YAML renders the configuration.
func (l LocalConfig) YAML() ([]byte, error) {
	return yaml.Marshal(l)
}
