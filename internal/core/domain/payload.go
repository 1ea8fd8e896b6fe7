package domain

// UpstreamPayload is the body of an upstream upsert on the proxy admin API.
type UpstreamPayload struct {
	Addrs       []string `json:"addrs"`
	Algo        string   `json:"algo,omitempty"`
	HealthCheck string   `json:"health_check,omitempty"`
}

// LocationPayload is the body of a location upsert. Host and Path are always
// sent, empty when they cannot be recovered from the rule.
type LocationPayload struct {
	Upstream        string   `json:"upstream"`
	Host            string   `json:"host"`
	Path            string   `json:"path"`
	Rewrite         string   `json:"rewrite,omitempty"`
	ProxyAddHeaders []string `json:"proxy_add_headers,omitempty"`
}
