package config

// Config is the top-level structure loaded from benefits-setup.yaml.
// Every section has defaults, so an absent file yields a usable Config.
type Config struct {
	// Repo is the GitHub repository ("owner/name") secrets are written to.
	// Empty means the repository gh infers from the working directory.
	Repo        string              `yaml:"repo"`
	Tunnel      TunnelSettings      `yaml:"tunnel"`
	GitHubApp   GitHubAppSettings   `yaml:"github_app"`
	Reddit      RedditSettings      `yaml:"reddit"`
	Cloudflared CloudflaredSettings `yaml:"cloudflared"`
}

// TunnelSettings describes the Cloudflare Tunnel that exposes the local service.
// - Name: tunnel name, used to find an existing tunnel before creating one.
// - Domain/Subdomain: public hostname is Subdomain.Domain.
// - ServicePort: local port the ingress rule routes to (http://localhost:<port>).
// - SecretName: GitHub secret that receives the connector token.
// - Output: path of the JSON summary written after provisioning.
type TunnelSettings struct {
	Name        string `yaml:"name"`
	Domain      string `yaml:"domain"`
	Subdomain   string `yaml:"subdomain"`
	ServicePort int    `yaml:"service_port"`
	SecretName  string `yaml:"secret_name"`
	Output      string `yaml:"output"`
}

// GitHubAppSettings drives the manifest flow.
type GitHubAppSettings struct {
	Name            string            `yaml:"name"`
	Homepage        string            `yaml:"homepage"`
	Public          bool              `yaml:"public"`
	Permissions     map[string]string `yaml:"permissions"`
	Events          []string          `yaml:"events"`
	CallbackPort    int               `yaml:"callback_port"`
	CallbackTimeout int               `yaml:"callback_timeout_seconds"`
	AppIDSecret     string            `yaml:"app_id_secret"`
	PrivateKey      string            `yaml:"private_key_secret"`
}

// RedditSettings holds the values the user types into reddit.com/prefs/apps.
type RedditSettings struct {
	AppName            string `yaml:"app_name"`
	RedirectURI        string `yaml:"redirect_uri"`
	ClientIDSecret     string `yaml:"client_id_secret"`
	ClientSecretSecret string `yaml:"client_secret_secret"`
}

// CloudflaredSettings controls installation of the tunnel connector.
// Version "latest" resolves the newest GitHub release.
type CloudflaredSettings struct {
	Version   string `yaml:"version"`
	BinDir    string `yaml:"bin_dir"`
	StateFile string `yaml:"state_file"`
}
