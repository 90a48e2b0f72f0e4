// Package githubapp registers a GitHub App through the manifest flow and
// stores its credentials as repository secrets.
package githubapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"benefits-setup/internal/config"
)

// NewAppURL is the page that turns a manifest into a new GitHub App.
const NewAppURL = "https://github.com/settings/apps/new"

// HookAttributes configures the app webhook.
type HookAttributes struct {
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active"`
}

// Manifest is the app description GitHub pre-fills the creation form with.
type Manifest struct {
	Name               string            `json:"name"`
	URL                string            `json:"url"`
	HookAttributes     HookAttributes    `json:"hook_attributes"`
	RedirectURL        string            `json:"redirect_url,omitempty"`
	Public             bool              `json:"public"`
	DefaultPermissions map[string]string `json:"default_permissions"`
	DefaultEvents      []string          `json:"default_events"`
}

// NewManifest builds a webhook-less manifest from settings.
func NewManifest(s config.GitHubAppSettings, redirectURL string) Manifest {
	perms := make(map[string]string, len(s.Permissions))
	for k, v := range s.Permissions {
		perms[k] = v
	}
	events := append([]string{}, s.Events...)
	return Manifest{
		Name:               s.Name,
		URL:                s.Homepage,
		HookAttributes:     HookAttributes{Active: false},
		RedirectURL:        redirectURL,
		Public:             s.Public,
		DefaultPermissions: perms,
		DefaultEvents:      events,
	}
}

// Permissions lists "scope: level" pairs in scope order.
func (m Manifest) Permissions() []string {
	scopes := make([]string, 0, len(m.DefaultPermissions))
	for k := range m.DefaultPermissions {
		scopes = append(scopes, k)
	}
	sort.Strings(scopes)
	out := make([]string, len(scopes))
	for i, k := range scopes {
		out[i] = k + ": " + m.DefaultPermissions[k]
	}
	return out
}

// RegistrationURL returns the browser URL that starts app creation. state
// comes back on the redirect and must be checked by the receiver.
func RegistrationURL(m Manifest, state string) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	q := url.Values{}
	q.Set("state", state)
	q.Set("manifest", string(raw))
	return NewAppURL + "?" + q.Encode(), nil
}

// Credentials is the conversion response for a freshly created app.
type Credentials struct {
	ID            int64  `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	PEM           string `json:"pem"`
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	WebhookSecret string `json:"webhook_secret"`
	HTMLURL       string `json:"html_url"`
}

// ParseCredentials decodes a conversion response and checks the fields the
// setup needs are present.
func ParseCredentials(raw []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, fmt.Errorf("decode app credentials: %w", err)
	}
	switch {
	case c.ID == 0:
		return Credentials{}, errors.New("app credentials: missing id")
	case c.PEM == "":
		return Credentials{}, errors.New("app credentials: missing private key")
	case c.Slug == "":
		return Credentials{}, errors.New("app credentials: missing slug")
	}
	return c, nil
}

// InstallURL is where the app gets installed on repositories.
func InstallURL(slug string) string {
	return "https://github.com/settings/apps/" + url.PathEscape(slug) + "/installations"
}
