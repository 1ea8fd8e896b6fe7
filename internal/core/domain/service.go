package domain

// ServiceConfig is the routing unit derived from one container's labels.
// Name is the join key between the reconciler's state and the proxy's namespace.
type ServiceConfig struct {
	Name      string   `json:"name"`
	Upstreams []string `json:"upstreams"`
	Location  Location `json:"location"`

	// Extension blocks are nil when none of their labels is set, which means
	// "leave the feature alone", not "disable it".
	Upstream    *UpstreamOptions  `json:"upstream_config,omitempty"`
	HealthCheck *HealthCheck      `json:"health_check,omitempty"`
	Middleware  *MiddlewareBundle `json:"middleware_config,omitempty"`
	TLS         *TLSOptions       `json:"tls_config,omitempty"`
}

// Location describes how requests are matched to the service.
type Location struct {
	Rule        string   `json:"rule"`
	Priority    *int32   `json:"priority,omitempty"`
	Middlewares []string `json:"middlewares,omitempty"`
	TLS         *bool    `json:"tls,omitempty"`
}

// UpstreamOptions carries load-balancing hints.
type UpstreamOptions struct {
	Weight   *uint32 `json:"weight,omitempty"`
	Strategy *string `json:"strategy,omitempty"`
}

// HealthCheck holds an HTTP health check. Interval and Timeout are duration strings such as "10s".
type HealthCheck struct {
	Path     string `json:"path"`
	Interval string `json:"interval,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

// MiddlewareBundle holds per-request transformations. Nil fields are left untouched.
type MiddlewareBundle struct {
	StripPrefix           *string  `json:"strip_prefix,omitempty"`
	AddPrefix             *string  `json:"add_prefix,omitempty"`
	CustomRequestHeaders  []string `json:"custom_request_headers,omitempty"`
	CustomResponseHeaders []string `json:"custom_response_headers,omitempty"`
	CORSEnabled           *bool    `json:"cors_enabled,omitempty"`
	Compress              *bool    `json:"compress,omitempty"`
	RateLimitAverage      *uint32  `json:"ratelimit_average,omitempty"`
	RateLimitBurst        *uint32  `json:"ratelimit_burst,omitempty"`
	BasicAuth             *string  `json:"basic_auth,omitempty"`
	RedirectScheme        *string  `json:"redirect_scheme,omitempty"`
	RedirectRegex         *string  `json:"redirect_regex,omitempty"`
}

// TLSOptions is only present when TLS is enabled for the location.
type TLSOptions struct {
	Enabled  bool     `json:"enabled"`
	Redirect *bool    `json:"redirect,omitempty"`
	Domains  []string `json:"domains,omitempty"`
}
