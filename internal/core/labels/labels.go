// Package labels turns pingap.* container labels into service configuration.
package labels

// Container labels understood by the compiler.
const (
	Enable         = "pingap.enable"
	ServiceName    = "pingap.service.name"
	ServiceAddress = "pingap.service.address"
	ServicePort    = "pingap.service.port"
	DockerNetwork  = "pingap.docker.network"

	HTTPRule        = "pingap.http.rule"
	HTTPPriority    = "pingap.http.priority"
	HTTPHost        = "pingap.http.host"
	HTTPPaths       = "pingap.http.paths"
	HTTPMiddlewares = "pingap.http.middlewares"
	HTTPTLSEnabled  = "pingap.http.tls.enabled"

	UpstreamWeight   = "pingap.upstream.weight"
	UpstreamStrategy = "pingap.upstream.strategy"

	HealthCheckPath     = "pingap.health_check.path"
	HealthCheckInterval = "pingap.health_check.interval"
	HealthCheckTimeout  = "pingap.health_check.timeout"

	MiddlewareStripPrefix      = "pingap.middleware.strip_prefix"
	MiddlewareAddPrefix        = "pingap.middleware.add_prefix"
	HeadersCustomRequest       = "pingap.headers.custom_request"
	HeadersCustomResponse      = "pingap.headers.custom_response"
	HeadersCORSEnable          = "pingap.headers.cors.enable"
	MiddlewareCompress         = "pingap.middleware.compress"
	MiddlewareRateLimitAverage = "pingap.middleware.ratelimit.average"
	MiddlewareRateLimitBurst   = "pingap.middleware.ratelimit.burst"
	MiddlewareBasicAuth        = "pingap.middleware.basic_auth"
	MiddlewareRedirectScheme   = "pingap.middleware.redirect_scheme"
	MiddlewareRedirectRegex    = "pingap.middleware.redirect_regex"

	TLSRedirect = "pingap.tls.redirect"
	TLSDomains  = "pingap.tls.domains"
)

// EnabledValue is the only value of the enable label that opts a container in.
const EnabledValue = "true"

// nameAttribute is the event attribute carrying the container name.
const nameAttribute = "name"

var middlewareLabels = []string{
	MiddlewareStripPrefix,
	MiddlewareAddPrefix,
	HeadersCustomRequest,
	HeadersCustomResponse,
	HeadersCORSEnable,
	MiddlewareCompress,
	MiddlewareRateLimitAverage,
	MiddlewareRateLimitBurst,
	MiddlewareBasicAuth,
	MiddlewareRedirectScheme,
	MiddlewareRedirectRegex,
}
