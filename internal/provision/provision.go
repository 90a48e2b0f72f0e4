// Package provision publishes a local service through a Cloudflare Tunnel:
// it resolves or creates the tunnel, routes a hostname to the service and
// points DNS at the tunnel.
package provision

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"benefits-setup/internal/cloudflare"
	"benefits-setup/internal/ingress"
	"benefits-setup/internal/logger"
)

// ErrTunnelNotFound is returned by lookups for a tunnel that does not exist.
var ErrTunnelNotFound = errors.New("tunnel not found")

// API is the subset of the Cloudflare client the provisioner drives.
type API interface {
	AccountID() string
	ZoneID(ctx context.Context, domain string) (string, error)
	TunnelByName(ctx context.Context, name string) (cloudflare.Tunnel, bool, error)
	CreateTunnel(ctx context.Context, name, secret string) (cloudflare.Tunnel, error)
	TunnelToken(ctx context.Context, tunnelID string) (string, error)
	TunnelConfiguration(ctx context.Context, tunnelID string) (ingress.Config, error)
	UpdateTunnelConfiguration(ctx context.Context, tunnelID string, cfg ingress.Config) error
	EnsureCNAME(ctx context.Context, zoneID, name, target string) (cloudflare.DNSRecord, cloudflare.Action, error)
}

// Request describes the route to publish.
type Request struct {
	TunnelName  string
	Domain      string
	Subdomain   string
	ServicePort int
}

// Hostname is the public name, subdomain.domain (or the bare domain).
func (r Request) Hostname() string {
	if r.Subdomain == "" {
		return r.Domain
	}
	return r.Subdomain + "." + r.Domain
}

// ServiceURL is the origin the tunnel forwards to.
func (r Request) ServiceURL() string {
	return fmt.Sprintf("http://localhost:%d", r.ServicePort)
}

func (r Request) validate() error {
	switch {
	case r.TunnelName == "":
		return errors.New("tunnel name is required")
	case r.Domain == "":
		return errors.New("domain is required")
	case r.ServicePort < 1 || r.ServicePort > 65535:
		return fmt.Errorf("service port %d out of range", r.ServicePort)
	}
	return nil
}

// Result is what a successful Run produced.
type Result struct {
	Tunnel  cloudflare.Tunnel
	Created bool
	// Token is the connector token. Callers must not log it.
	Token     string
	Ingress   ingress.Config
	DNSRecord cloudflare.DNSRecord
	DNSAction cloudflare.Action
	// DNSWarning is set when the record could not be written because
	// Cloudflare rejected it with 400, typically a record managed elsewhere.
	DNSWarning error
	Summary    Summary
}

// Provisioner runs the tunnel setup steps against an API.
type Provisioner struct {
	api       API
	newSecret func() (string, error)
}

// New returns a Provisioner using api.
func New(api API) *Provisioner {
	return &Provisioner{api: api, newSecret: cloudflare.NewTunnelSecret}
}

// Run executes the setup sequence. Steps run strictly in order: zone, tunnel,
// token, ingress, DNS. A failing step aborts the run with an error naming the
// step, except a DNS write rejected with HTTP 400 which is reported in
// Result.DNSWarning. Nothing is retried.
func (p *Provisioner) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	host := req.Hostname()
	logger.Info("[INFO] Setting up tunnel: %s\n", host)

	zoneID, err := p.api.ZoneID(ctx, req.Domain)
	if err != nil {
		return Result{}, fmt.Errorf("resolve zone: %w", err)
	}
	logger.Debug("[DEBUG] Zone %s has id %s\n", req.Domain, zoneID)

	var res Result
	var secret string
	tunnel, found, err := p.api.TunnelByName(ctx, req.TunnelName)
	if err != nil {
		return Result{}, fmt.Errorf("look up tunnel: %w", err)
	}
	if found {
		logger.Info("[INFO] Tunnel exists: %s\n", tunnel.ID)
	} else {
		logger.Info("[INFO] Creating tunnel: %s\n", req.TunnelName)
		if secret, err = p.newSecret(); err != nil {
			return Result{}, fmt.Errorf("create tunnel: %w", err)
		}
		if tunnel, err = p.api.CreateTunnel(ctx, req.TunnelName, secret); err != nil {
			return Result{}, fmt.Errorf("create tunnel: %w", err)
		}
		res.Created = true
		logger.Success("[OK] Tunnel created: %s\n", tunnel.ID)
	}
	res.Tunnel = tunnel

	token, err := p.api.TunnelToken(ctx, tunnel.ID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch tunnel token: %w", err)
	}
	if token == "" && secret != "" {
		logger.Debug("[DEBUG] Token endpoint returned nothing, deriving token from the tunnel secret\n")
		token = cloudflare.DeriveToken(p.api.AccountID(), tunnel.ID, secret)
	}
	if token == "" {
		return Result{}, errors.New("fetch tunnel token: empty token returned")
	}
	logger.Mask(token)
	res.Token = token

	logger.Info("[INFO] Creating route: %s -> %s\n", host, req.ServiceURL())
	current, err := p.api.TunnelConfiguration(ctx, tunnel.ID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch ingress configuration: %w", err)
	}
	res.Ingress = ingress.Reconcile(current, host, req.ServiceURL())
	if err := p.api.UpdateTunnelConfiguration(ctx, tunnel.ID, res.Ingress); err != nil {
		return Result{}, fmt.Errorf("update ingress configuration: %w", err)
	}

	logger.Info("[INFO] Configuring DNS: %s\n", host)
	rec, action, err := p.api.EnsureCNAME(ctx, zoneID, host, tunnel.Target())
	switch {
	case err == nil:
		res.DNSRecord, res.DNSAction = rec, action
		logger.Debug("[DEBUG] DNS record %s %s\n", host, action)
	case cloudflare.HasStatus(err, http.StatusBadRequest):
		res.DNSWarning = err
		logger.Warn("[WARN] DNS record may be managed externally: %v\n", err)
	default:
		return Result{}, fmt.Errorf("configure DNS: %w", err)
	}

	res.Summary = Summary{
		TunnelID:   tunnel.ID,
		TunnelName: req.TunnelName,
		Subdomain:  req.Subdomain,
		Domain:     req.Domain,
		URL:        "https://" + host,
	}
	logger.Success("[OK] Tunnel ready: %s\n", res.Summary.URL)
	return res, nil
}

// Token returns the connector token of the tunnel called name.
func (p *Provisioner) Token(ctx context.Context, name string) (cloudflare.Tunnel, string, error) {
	tunnel, err := p.lookup(ctx, name)
	if err != nil {
		return cloudflare.Tunnel{}, "", err
	}
	token, err := p.api.TunnelToken(ctx, tunnel.ID)
	if err != nil {
		return cloudflare.Tunnel{}, "", fmt.Errorf("fetch tunnel token: %w", err)
	}
	if token == "" {
		return cloudflare.Tunnel{}, "", errors.New("fetch tunnel token: empty token returned")
	}
	logger.Mask(token)
	return tunnel, token, nil
}

// Ingress returns the current remote ingress configuration of the tunnel
// called name.
func (p *Provisioner) Ingress(ctx context.Context, name string) (cloudflare.Tunnel, ingress.Config, error) {
	tunnel, err := p.lookup(ctx, name)
	if err != nil {
		return cloudflare.Tunnel{}, ingress.Config{}, err
	}
	cfg, err := p.api.TunnelConfiguration(ctx, tunnel.ID)
	if err != nil {
		return cloudflare.Tunnel{}, ingress.Config{}, fmt.Errorf("fetch ingress configuration: %w", err)
	}
	return tunnel, cfg, nil
}

func (p *Provisioner) lookup(ctx context.Context, name string) (cloudflare.Tunnel, error) {
	tunnel, found, err := p.api.TunnelByName(ctx, name)
	if err != nil {
		return cloudflare.Tunnel{}, fmt.Errorf("look up tunnel: %w", err)
	}
	if !found {
		return cloudflare.Tunnel{}, fmt.Errorf("%w: %s", ErrTunnelNotFound, name)
	}
	return tunnel, nil
}
