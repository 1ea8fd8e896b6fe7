package applier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
)

// UpstreamPayload builds the upstream upsert body for a service.
func UpstreamPayload(cfg *domain.ServiceConfig) domain.UpstreamPayload {
	p := domain.UpstreamPayload{Addrs: cfg.Upstreams}
	if u := cfg.Upstream; u != nil && u.Strategy != nil {
		p.Algo = *u.Strategy
	}
	if hc := cfg.HealthCheck; hc != nil && hc.Path != "" {
		p.HealthCheck = healthCheckURL(cfg.Name, hc)
	}
	return p
}

// LocationPayload builds the location upsert body for a service. Host and
// path are only recovered when the rule is a single Host or PathPrefix predicate.
func LocationPayload(cfg *domain.ServiceConfig) domain.LocationPayload {
	p := domain.LocationPayload{Upstream: cfg.Name}
	if r, ok := domain.ParseSinglePredicate(cfg.Location.Rule); ok {
		switch v := r.(type) {
		case domain.HostMatch:
			p.Host = string(v)
		case domain.PathPrefixMatch:
			p.Path = string(v)
		}
	}
	if m := cfg.Middleware; m != nil {
		p.Rewrite = rewrite(m)
		p.ProxyAddHeaders = m.CustomRequestHeaders
	}
	return p
}

func healthCheckURL(service string, hc *domain.HealthCheck) string {
	u := url.URL{Scheme: "http", Host: service, Path: hc.Path}
	q := url.Values{}
	if hc.Interval != "" {
		q.Set("check_frequency", hc.Interval)
	}
	if hc.Timeout != "" {
		q.Set("read_timeout", hc.Timeout)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// rewrite builds the "<pattern> <replacement>" rule for prefix stripping and
// adding. The rewritten path always starts with a slash.
func rewrite(m *domain.MiddlewareBundle) string {
	if m.StripPrefix == nil && m.AddPrefix == nil {
		return ""
	}
	add := ""
	if m.AddPrefix != nil {
		add = strings.TrimRight(*m.AddPrefix, "/")
	}
	if m.StripPrefix == nil {
		return "^(.*) " + add + "$1"
	}
	// The prefix matches whole segments only: /api strips /api and /api/x but not /apix.
	strip := strings.TrimRight(*m.StripPrefix, "/")
	return "^" + regexp.QuoteMeta(strip) + "(?:/|$)(.*) " + add + "/$1"
}
