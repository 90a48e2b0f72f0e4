package ingress

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	benefitsHost = "benefits.neevs.io"
	localService = "http://localhost:8080"
)

// requireValid asserts the guarantees every reconciled list must hold.
func requireValid(t *testing.T, cfg Config, hostname, service string) {
	t.Helper()
	require.NotEmpty(t, cfg.Ingress)

	last := cfg.Ingress[len(cfg.Ingress)-1]
	assert.Equal(t, CatchAll(), last, "catch-all must be last")

	catchAlls := 0
	seen := map[string]bool{}
	for _, r := range cfg.Ingress {
		if r.IsCatchAll() {
			catchAlls++
			continue
		}
		assert.False(t, seen[r.Hostname], "duplicate hostname %q", r.Hostname)
		seen[r.Hostname] = true
	}
	assert.Equal(t, 1, catchAlls, "exactly one catch-all")

	rule, ok := cfg.Lookup(hostname)
	require.True(t, ok, "hostname %q missing", hostname)
	assert.Equal(t, service, rule.Service)
}

func TestReconcileEmptyConfig(t *testing.T) {
	got := Reconcile(Parse([]byte(`[]`)), benefitsHost, localService)

	assert.Equal(t, []Rule{
		{Hostname: benefitsHost, Service: localService},
		{Service: CatchAllService},
	}, got.Ingress)
}

func TestReconcileMalformedInputs(t *testing.T) {
	inputs := map[string]string{
		"empty":                 ``,
		"null":                  `null`,
		"number":                `42`,
		"array":                 `[]`,
		"garbage":               `{not json`,
		"string garbage":        `"hello"`,
		"config null":           `{"config": null}`,
		"config number":         `{"config": 7}`,
		"ingress not list":      `{"config": {"ingress": {"hostname": "x"}}}`,
		"ingress in string":     `{"config": "{\"ingress\": 5}"}`,
		"rules of wrong shapes": `{"ingress": [1, "x", null, {"hostname": "b.neevs.io"}, {"hostname": 5, "service": "http://y"}]}`,
		"double encoded":        `"{\"config\": \"{\\\"ingress\\\": []}\"}"`,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			got := Reconcile(Parse([]byte(raw)), benefitsHost, localService)
			requireValid(t, got, benefitsHost, localService)
		})
	}
}

func TestReconcileReplacesExistingHostname(t *testing.T) {
	cfg := Parse([]byte(`{"ingress": [
		{"hostname": "api.neevs.io", "service": "http://localhost:9000"},
		{"hostname": "benefits.neevs.io", "service": "http://localhost:3000"},
		{"service": "http_status:404"}
	]}`))

	got := Reconcile(cfg, benefitsHost, localService)

	assert.Equal(t, []Rule{
		{Hostname: benefitsHost, Service: localService},
		{Hostname: "api.neevs.io", Service: "http://localhost:9000"},
		{Service: CatchAllService},
	}, got.Ingress)
}

func TestReconcileHostnameMatchIsCaseSensitive(t *testing.T) {
	cfg := Config{Ingress: []Rule{{Hostname: "Benefits.neevs.io", Service: "http://localhost:1"}}}

	got := Reconcile(cfg, benefitsHost, localService)

	assert.Len(t, got.Ingress, 3)
	assert.Equal(t, "Benefits.neevs.io", got.Ingress[1].Hostname)
}

func TestReconcileIsIdempotent(t *testing.T) {
	cases := []Config{
		{},
		Parse([]byte(`{"ingress": [{"hostname": "a.neevs.io", "service": "http://a"}, {"service": "http_status:404"}]}`)),
		Parse([]byte(`{"ingress": [{"service": "http_status:404"}, {"hostname": "benefits.neevs.io", "service": "http://old"}, {"service": "http_status:404"}]}`)),
	}
	for _, cfg := range cases {
		once := Reconcile(cfg, benefitsHost, localService)
		twice := Reconcile(once, benefitsHost, localService)
		assert.Equal(t, once, twice)
	}
}

func TestReconcilePreservesOtherHostnames(t *testing.T) {
	first := Reconcile(Config{}, "a.neevs.io", "http://localhost:1")
	second := Reconcile(first, "b.neevs.io", "http://localhost:2")

	assert.Equal(t, "b.neevs.io", second.Ingress[0].Hostname)
	rule, ok := second.Lookup("a.neevs.io")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:1", rule.Service)
	requireValid(t, second, "b.neevs.io", "http://localhost:2")
}

func TestReconcileNeverDuplicatesCatchAll(t *testing.T) {
	cfg := Config{Ingress: []Rule{CatchAll(), CatchAll(), {Service: "http_status:503"}}}
	for i, host := range []string{"a.neevs.io", "b.neevs.io", "a.neevs.io", "c.neevs.io"} {
		service := fmt.Sprintf("http://localhost:%d", 8000+i)
		cfg = Reconcile(cfg, host, service)
		requireValid(t, cfg, host, service)
	}
	assert.Equal(t, []string{"c.neevs.io", "a.neevs.io", "b.neevs.io"}, cfg.Hostnames())
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	input := Config{Ingress: []Rule{
		{Hostname: benefitsHost, Service: "http://old"},
		CatchAll(),
	}}
	snapshot := append([]Rule(nil), input.Ingress...)

	_ = Reconcile(input, benefitsHost, localService)

	assert.Equal(t, snapshot, input.Ingress)
}

func TestReconcileWithEmptyHostnameOnlyNormalizes(t *testing.T) {
	cfg := Config{Ingress: []Rule{CatchAll(), {Hostname: "a.neevs.io", Service: "http://a"}}}

	got := Reconcile(cfg, "", localService)

	assert.Equal(t, []Rule{{Hostname: "a.neevs.io", Service: "http://a"}, CatchAll()}, got.Ingress)
}

func TestReconcileKeepsUnknownConfigKeys(t *testing.T) {
	cfg := Parse([]byte(`{"tunnel_id": "t1", "version": 4, "config": {
		"warp-routing": {"enabled": true},
		"ingress": [{"hostname": "a.neevs.io", "path": "/api", "service": "http://a", "originRequest": {"noTLSVerify": true}}]
	}}`))

	out, err := json.Marshal(Reconcile(cfg, benefitsHost, localService))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]any{"enabled": true}, decoded["warp-routing"])
	assert.NotContains(t, decoded, "tunnel_id")

	rules := decoded["ingress"].([]any)
	require.Len(t, rules, 3)
	kept := rules[1].(map[string]any)
	assert.Equal(t, "/api", kept["path"])
	assert.Equal(t, map[string]any{"noTLSVerify": true}, kept["originRequest"])
	assert.Equal(t, map[string]any{"service": CatchAllService}, rules[2])
}
