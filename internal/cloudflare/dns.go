package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrZoneNotFound is returned when no zone matches a domain.
var ErrZoneNotFound = errors.New("zone not found")

// Zone is a DNS zone of the account.
type Zone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// ZoneID resolves the id of the zone named domain.
func (c *Client) ZoneID(ctx context.Context, domain string) (string, error) {
	query := url.Values{}
	query.Set("name", domain)
	zones, err := call[[]Zone](ctx, c, http.MethodGet, "/zones?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	if len(zones) == 0 {
		return "", fmt.Errorf("%w: %s", ErrZoneNotFound, domain)
	}
	return zones[0].ID, nil
}

// DNSRecord is a zone record. TTL 1 means "automatic".
type DNSRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
	TTL     int    `json:"ttl"`
}

// Action reports what EnsureCNAME did.
type Action int

const (
	ActionUnchanged Action = iota
	ActionCreated
	ActionUpdated
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

func recordsPath(zoneID string, id ...string) string {
	p := "/zones/" + url.PathEscape(zoneID) + "/dns_records"
	if len(id) > 0 {
		p += "/" + url.PathEscape(id[0])
	}
	return p
}

// FindCNAME returns the first CNAME record named name, or nil.
func (c *Client) FindCNAME(ctx context.Context, zoneID, name string) (*DNSRecord, error) {
	query := url.Values{}
	query.Set("type", "CNAME")
	query.Set("name", name)
	records, err := call[[]DNSRecord](ctx, c, http.MethodGet, recordsPath(zoneID)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// CreateDNSRecord adds rec to the zone.
func (c *Client) CreateDNSRecord(ctx context.Context, zoneID string, rec DNSRecord) (DNSRecord, error) {
	rec.ID = ""
	return call[DNSRecord](ctx, c, http.MethodPost, recordsPath(zoneID), rec)
}

// UpdateDNSRecord overwrites record id with rec.
func (c *Client) UpdateDNSRecord(ctx context.Context, zoneID, id string, rec DNSRecord) (DNSRecord, error) {
	rec.ID = ""
	return call[DNSRecord](ctx, c, http.MethodPut, recordsPath(zoneID, id), rec)
}

// EnsureCNAME makes name a proxied CNAME to target with at most one write.
// A record whose content matches target (trailing dots ignored) and which is
// already proxied is left alone. Concurrent edits are not guarded against.
func (c *Client) EnsureCNAME(ctx context.Context, zoneID, name, target string) (DNSRecord, Action, error) {
	want := DNSRecord{
		Type:    "CNAME",
		Name:    name,
		Content: target,
		Proxied: true,
		TTL:     1,
	}

	existing, err := c.FindCNAME(ctx, zoneID, name)
	if err != nil {
		return DNSRecord{}, ActionUnchanged, fmt.Errorf("look up CNAME %s: %w", name, err)
	}

	if existing == nil {
		rec, err := c.CreateDNSRecord(ctx, zoneID, want)
		if err != nil {
			return DNSRecord{}, ActionUnchanged, fmt.Errorf("create CNAME %s: %w", name, err)
		}
		return rec, ActionCreated, nil
	}

	if sameHost(existing.Content, target) && existing.Proxied {
		return *existing, ActionUnchanged, nil
	}

	rec, err := c.UpdateDNSRecord(ctx, zoneID, existing.ID, want)
	if err != nil {
		return DNSRecord{}, ActionUnchanged, fmt.Errorf("update CNAME %s: %w", name, err)
	}
	return rec, ActionUpdated, nil
}

func sameHost(a, b string) bool {
	return strings.TrimRight(a, ".") == strings.TrimRight(b, ".")
}
