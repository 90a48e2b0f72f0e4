package ingress

// Reconcile returns a copy of cfg routing hostname to service.
//
// The new rule goes first. Any earlier rule for the same hostname (exact,
// case-sensitive match) is dropped, as is every catch-all or http_status:404
// rule; a single catch-all is then appended. Other rules keep their relative
// order. cfg is not modified.
//
// An empty hostname adds no rule; the result is still a valid list ending in
// one catch-all.
func Reconcile(cfg Config, hostname, service string) Config {
	rules := make([]Rule, 0, len(cfg.Ingress)+2)
	if hostname != "" {
		rules = append(rules, Rule{Hostname: hostname, Service: service})
	}
	for _, r := range cfg.Ingress {
		if hostname != "" && r.Hostname == hostname {
			continue
		}
		if r.IsCatchAll() || r.Service == CatchAllService {
			continue
		}
		rules = append(rules, r)
	}
	rules = append(rules, CatchAll())

	return Config{Ingress: rules, extra: cfg.extra}
}
