package provision

import (
	"encoding/json"
	"fmt"
	"os"
)

// Summary is the record written to tunnel.json after a successful setup.
type Summary struct {
	TunnelID   string `json:"tunnel_id"`
	TunnelName string `json:"tunnel_name"`
	Subdomain  string `json:"subdomain"`
	Domain     string `json:"domain"`
	URL        string `json:"url"`
}

// WriteSummary saves s as indented JSON. The file holds no secrets.
func WriteSummary(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("parse summary %s: %w", path, err)
	}
	return s, nil
}
