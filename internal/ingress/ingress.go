// Package ingress models a Cloudflare Tunnel ingress configuration and
// reconciles it against a desired hostname route.
package ingress

import "encoding/json"

// CatchAllService is the service of the mandatory trailing rule.
const CatchAllService = "http_status:404"

// Rule routes requests for Hostname (and optionally Path) to Service.
// An empty Hostname marks the catch-all rule.
type Rule struct {
	Hostname      string         `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Path          string         `json:"path,omitempty" yaml:"path,omitempty"`
	Service       string         `json:"service" yaml:"service"`
	OriginRequest map[string]any `json:"originRequest,omitempty" yaml:"originRequest,omitempty"`
}

// IsCatchAll reports whether r is a catch-all rule.
func (r Rule) IsCatchAll() bool {
	return r.Hostname == ""
}

// CatchAll returns the rule appended after every reconcile.
func CatchAll() Rule {
	return Rule{Service: CatchAllService}
}

// Config is an ordered ingress list plus every other top-level key of the
// remote configuration, kept verbatim so a push does not drop them.
type Config struct {
	Ingress []Rule
	extra   map[string]json.RawMessage
}

// Lookup returns the rule for hostname, if any.
func (c Config) Lookup(hostname string) (Rule, bool) {
	for _, r := range c.Ingress {
		if r.Hostname == hostname && hostname != "" {
			return r, true
		}
	}
	return Rule{}, false
}

// Hostnames lists the routed hostnames in priority order.
func (c Config) Hostnames() []string {
	out := make([]string, 0, len(c.Ingress))
	for _, r := range c.Ingress {
		if !r.IsCatchAll() {
			out = append(out, r.Hostname)
		}
	}
	return out
}

// MarshalJSON writes the preserved keys plus "ingress". A nil ingress list is
// written as [] so the API never receives null.
func (c Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.extra)+1)
	for k, v := range c.extra {
		out[k] = v
	}
	rules := c.Ingress
	if rules == nil {
		rules = []Rule{}
	}
	out["ingress"] = rules
	return json.Marshal(out)
}

// UnmarshalJSON accepts any payload Parse accepts and never fails.
func (c *Config) UnmarshalJSON(b []byte) error {
	*c = Parse(b)
	return nil
}
