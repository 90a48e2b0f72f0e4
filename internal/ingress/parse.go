package ingress

import (
	"bytes"
	"encoding/json"
)

// maxStringNesting bounds how many times a JSON document may be wrapped in a
// JSON string before Parse gives up on it.
const maxStringNesting = 2

// Parse normalizes a raw tunnel configuration payload into a Config.
//
// Accepted shapes, in the order they are tried:
//   - empty input or null: empty Config
//   - a JSON string holding one of these shapes
//   - an object with a "config" key (object, string or null): that value is parsed
//   - a bare configuration object
//
// Inside the configuration a non-list "ingress" becomes an empty list, entries
// that are not objects or have no string "service" are dropped, and a
// non-string hostname counts as absent. Anything else yields an empty Config.
func Parse(raw []byte) Config {
	obj, ok := decodeObject(raw, 0)
	if !ok {
		return Config{}
	}
	if nested, present := obj["config"]; present {
		obj, ok = decodeObject(nested, 0)
		if !ok {
			return Config{}
		}
	}
	return fromObject(obj)
}

func decodeObject(raw []byte, depth int) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	switch raw[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		return obj, true
	case '"':
		if depth >= maxStringNesting {
			return nil, false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return decodeObject([]byte(s), depth+1)
	default:
		return nil, false
	}
}

func fromObject(obj map[string]json.RawMessage) Config {
	var cfg Config
	for k, v := range obj {
		if k == "ingress" {
			continue
		}
		if cfg.extra == nil {
			cfg.extra = make(map[string]json.RawMessage, len(obj))
		}
		cfg.extra[k] = v
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(obj["ingress"], &entries); err != nil {
		return cfg
	}
	for _, entry := range entries {
		if r, ok := parseRule(entry); ok {
			cfg.Ingress = append(cfg.Ingress, r)
		}
	}
	return cfg
}

func parseRule(raw json.RawMessage) (Rule, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Rule{}, false
	}

	var r Rule
	if err := json.Unmarshal(fields["service"], &r.Service); err != nil || r.Service == "" {
		return Rule{}, false
	}
	// Wrong-typed optional fields are ignored rather than rejecting the rule.
	_ = json.Unmarshal(fields["hostname"], &r.Hostname)
	_ = json.Unmarshal(fields["path"], &r.Path)
	_ = json.Unmarshal(fields["originRequest"], &r.OriginRequest)
	return r, true
}
