package cloudflare

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"benefits-setup/internal/ingress"
)

// Tunnel is a Cloudflare Tunnel (cfd_tunnel) as listed by the API.
type Tunnel struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status,omitempty"`
	ConfigSrc string     `json:"config_src,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitzero"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Target is the CNAME content routing a hostname into this tunnel.
func (t Tunnel) Target() string {
	return TunnelTarget(t.ID)
}

// TunnelTarget returns the cfargotunnel.com hostname for tunnelID.
func TunnelTarget(tunnelID string) string {
	return tunnelID + ".cfargotunnel.com"
}

func (c *Client) tunnelPath(parts ...string) string {
	p := "/accounts/" + url.PathEscape(c.accountID) + "/cfd_tunnel"
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// ListTunnels returns the account's live tunnels, optionally filtered by name.
func (c *Client) ListTunnels(ctx context.Context, name string) ([]Tunnel, error) {
	query := url.Values{}
	query.Set("is_deleted", "false")
	if name != "" {
		query.Set("name", name)
	}
	return call[[]Tunnel](ctx, c, http.MethodGet, c.tunnelPath()+"?"+query.Encode(), nil)
}

// TunnelByName returns the first live tunnel whose name matches exactly.
func (c *Client) TunnelByName(ctx context.Context, name string) (Tunnel, bool, error) {
	tunnels, err := c.ListTunnels(ctx, name)
	if err != nil {
		return Tunnel{}, false, err
	}
	for _, t := range tunnels {
		if t.Name == name && t.DeletedAt == nil {
			return t, true, nil
		}
	}
	return Tunnel{}, false, nil
}

// CreateTunnel creates a remotely managed tunnel. secret must be the base64
// encoding of at least 32 random bytes; see NewTunnelSecret.
func (c *Client) CreateTunnel(ctx context.Context, name, secret string) (Tunnel, error) {
	body := map[string]any{
		"name":          name,
		"tunnel_secret": secret,
		"config_src":    "cloudflare",
	}
	return call[Tunnel](ctx, c, http.MethodPost, c.tunnelPath(), body)
}

// NewTunnelSecret returns 32 random bytes, base64 encoded.
func NewTunnelSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate tunnel secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// TunnelToken fetches the connector token of a tunnel. An empty string with a
// nil error means the API answered without a usable token.
func (c *Client) TunnelToken(ctx context.Context, tunnelID string) (string, error) {
	raw, err := call[json.RawMessage](ctx, c, http.MethodGet, c.tunnelPath(tunnelID, "token"), nil)
	if err != nil {
		return "", err
	}
	return parseToken(raw), nil
}

// parseToken accepts a bare string, an object with a string "token" member,
// or anything else (yielding "").
func parseToken(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Token json.RawMessage `json:"token"`
	}
	if json.Unmarshal(raw, &obj) == nil && json.Unmarshal(obj.Token, &s) == nil {
		return s
	}
	return ""
}

// DeriveToken builds a connector token locally from the tunnel's secret, in
// the same format cloudflared decodes: base64 of {"a":account,"t":tunnel,"s":secret}.
func DeriveToken(accountID, tunnelID, secret string) string {
	payload, _ := json.Marshal(struct {
		AccountTag   string `json:"a"`
		TunnelID     string `json:"t"`
		TunnelSecret string `json:"s"`
	}{accountID, tunnelID, secret})
	return base64.StdEncoding.EncodeToString(payload)
}

// TunnelConfiguration fetches the remote ingress configuration. Whatever shape
// the result has, it is normalized by ingress.Parse.
func (c *Client) TunnelConfiguration(ctx context.Context, tunnelID string) (ingress.Config, error) {
	raw, err := call[json.RawMessage](ctx, c, http.MethodGet, c.tunnelPath(tunnelID, "configurations"), nil)
	if err != nil {
		return ingress.Config{}, err
	}
	return ingress.Parse(raw), nil
}

// UpdateTunnelConfiguration replaces the remote configuration wholesale.
func (c *Client) UpdateTunnelConfiguration(ctx context.Context, tunnelID string, cfg ingress.Config) error {
	body := map[string]any{"config": cfg}
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, c.tunnelPath(tunnelID, "configurations"), body)
	return err
}
