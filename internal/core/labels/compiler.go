package labels

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
)

// Compile derives the service configuration for a container. It returns nil
// without error when the container has not opted in with pingap.enable=true.
func Compile(c domain.ContainerSnapshot) (*domain.ServiceConfig, error) {
	if !enabled(c.Labels) {
		return nil, nil
	}

	cc := compiler{c: c, display: displayName(c)}

	address, err := cc.upstreamAddress()
	if err != nil {
		return nil, err
	}
	rule, err := cc.rule()
	if err != nil {
		return nil, err
	}
	upstream, err := cc.upstreamOptions()
	if err != nil {
		return nil, err
	}
	middleware, err := cc.middlewareBundle()
	if err != nil {
		return nil, err
	}

	cfg := &domain.ServiceConfig{
		Name:      serviceName(c.Labels, c.Name),
		Upstreams: []string{address},
		Location: domain.Location{
			Rule:        rule,
			Priority:    cc.priority(),
			Middlewares: cc.list(HTTPMiddlewares),
			TLS:         cc.flag(HTTPTLSEnabled),
		},
		Upstream:    upstream,
		HealthCheck: cc.healthCheck(),
		Middleware:  middleware,
	}
	if tls := cfg.Location.TLS; tls != nil && *tls {
		cfg.TLS = &domain.TLSOptions{
			Enabled:  true,
			Redirect: cc.flag(TLSRedirect),
			Domains:  cc.list(TLSDomains),
		}
	}
	return cfg, nil
}

// ServiceNameFromAttributes derives the service name from a lifecycle event's
// attributes using the same rules as Compile. It reports false when the
// attributes do not mark the container as enabled.
func ServiceNameFromAttributes(attrs map[string]string) (string, bool) {
	if !enabled(attrs) {
		return "", false
	}
	return serviceName(attrs, attrs[nameAttribute]), true
}

func enabled(labels map[string]string) bool {
	return labels[Enable] == EnabledValue
}

func serviceName(labels map[string]string, containerName string) string {
	if name, ok := labels[ServiceName]; ok {
		return name
	}
	return strings.TrimLeft(containerName, "/")
}

func displayName(c domain.ContainerSnapshot) string {
	if name := strings.TrimLeft(c.Name, "/"); name != "" {
		return name
	}
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

type compiler struct {
	c       domain.ContainerSnapshot
	display string
}

func (cc compiler) errorf(label string, err error, format string, args ...interface{}) error {
	return &CompileError{
		Container: cc.display,
		Label:     label,
		Reason:    fmt.Sprintf(format, args...),
		Err:       err,
	}
}

func (cc compiler) upstreamAddress() (string, error) {
	if address, ok := cc.c.Label(ServiceAddress); ok {
		return address, nil
	}
	ip, err := cc.ip()
	if err != nil {
		return "", err
	}
	port, err := cc.port()
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(ip, strconv.FormatUint(uint64(port), 10)), nil
}

func (cc compiler) ip() (string, error) {
	if network, ok := cc.c.Label(DockerNetwork); ok {
		ip, found := cc.c.NetworkIP(network)
		if !found {
			return "", cc.errorf(DockerNetwork, nil,
				"not connected to network %q, available networks: [%s]",
				network, strings.Join(cc.c.NetworkNames(), ", "))
		}
		return ip, nil
	}
	if cc.c.PrimaryIP != "" {
		return cc.c.PrimaryIP, nil
	}
	if len(cc.c.Networks) > 0 {
		return cc.c.Networks[0].IP, nil
	}
	return "", cc.errorf("", nil, "no IP address found")
}

func (cc compiler) port() (uint16, error) {
	if raw, ok := cc.c.Label(ServicePort); ok {
		p, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return 0, cc.errorf(ServicePort, err, "invalid port %q", raw)
		}
		return uint16(p), nil
	}
	if len(cc.c.Ports) == 0 {
		return 0, cc.errorf("", nil, "no exposed ports found, use the %s label to specify the port explicitly", ServicePort)
	}
	return cc.c.Ports[0], nil
}

func (cc compiler) rule() (string, error) {
	if explicit, ok := cc.c.Label(HTTPRule); ok {
		return explicit, nil
	}

	host, hasHost := cc.c.Label(HTTPHost)
	paths, hasPaths := cc.c.Label(HTTPPaths)

	var prefixes domain.AnyOf
	if hasPaths {
		for _, p := range strings.Split(paths, ",") {
			prefixes = append(prefixes, domain.PathPrefixMatch(strings.TrimSpace(p)))
		}
	}

	switch {
	case hasHost && hasPaths:
		return domain.AllOf{domain.HostMatch(host), domain.Grouped{Rule: prefixes}}.String(), nil
	case hasHost:
		return domain.HostMatch(host).String(), nil
	case hasPaths:
		return prefixes.String(), nil
	default:
		return "", cc.errorf("", nil, "%s=true but no routing rule, provide one of: %s, %s, or %s",
			Enable, HTTPRule, HTTPHost, HTTPPaths)
	}
}

// priority treats an unparsable value as unset.
func (cc compiler) priority() *int32 {
	raw, ok := cc.c.Label(HTTPPriority)
	if !ok {
		return nil
	}
	p, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil
	}
	v := int32(p)
	return &v
}

func (cc compiler) list(label string) []string {
	raw, ok := cc.c.Label(label)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (cc compiler) flag(label string) *bool {
	raw, ok := cc.c.Label(label)
	if !ok {
		return nil
	}
	v := raw == "true"
	return &v
}

func (cc compiler) str(label string) *string {
	raw, ok := cc.c.Label(label)
	if !ok {
		return nil
	}
	return &raw
}

func (cc compiler) unsigned(label string) (*uint32, error) {
	raw, ok := cc.c.Label(label)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, cc.errorf(label, err, "invalid unsigned integer %q", raw)
	}
	u := uint32(v)
	return &u, nil
}

func (cc compiler) upstreamOptions() (*domain.UpstreamOptions, error) {
	weight, err := cc.unsigned(UpstreamWeight)
	if err != nil {
		return nil, err
	}
	strategy := cc.str(UpstreamStrategy)
	if weight == nil && strategy == nil {
		return nil, nil
	}
	return &domain.UpstreamOptions{Weight: weight, Strategy: strategy}, nil
}

func (cc compiler) healthCheck() *domain.HealthCheck {
	path, hasPath := cc.c.Label(HealthCheckPath)
	interval, hasInterval := cc.c.Label(HealthCheckInterval)
	timeout, hasTimeout := cc.c.Label(HealthCheckTimeout)
	if !hasPath && !hasInterval && !hasTimeout {
		return nil
	}
	return &domain.HealthCheck{Path: path, Interval: interval, Timeout: timeout}
}

func (cc compiler) middlewareBundle() (*domain.MiddlewareBundle, error) {
	present := false
	for _, l := range middlewareLabels {
		if _, ok := cc.c.Label(l); ok {
			present = true
			break
		}
	}
	if !present {
		return nil, nil
	}

	average, err := cc.unsigned(MiddlewareRateLimitAverage)
	if err != nil {
		return nil, err
	}
	burst, err := cc.unsigned(MiddlewareRateLimitBurst)
	if err != nil {
		return nil, err
	}
	return &domain.MiddlewareBundle{
		StripPrefix:           cc.str(MiddlewareStripPrefix),
		AddPrefix:             cc.str(MiddlewareAddPrefix),
		CustomRequestHeaders:  cc.list(HeadersCustomRequest),
		CustomResponseHeaders: cc.list(HeadersCustomResponse),
		CORSEnabled:           cc.flag(HeadersCORSEnable),
		Compress:              cc.flag(MiddlewareCompress),
		RateLimitAverage:      average,
		RateLimitBurst:        burst,
		BasicAuth:             cc.str(MiddlewareBasicAuth),
		RedirectScheme:        cc.str(MiddlewareRedirectScheme),
		RedirectRegex:         cc.str(MiddlewareRedirectRegex),
	}, nil
}
