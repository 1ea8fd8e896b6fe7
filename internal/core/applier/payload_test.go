package applier

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestLocationPayload_HostAndPath(t *testing.T) {
	tests := []struct {
		rule string
		host string
		path string
	}{
		{"Host(`example.com`)", "example.com", ""},
		{"PathPrefix(`/api`)", "", "/api"},
		{"Host(`example.com`) && (PathPrefix(`/a`) || PathPrefix(`/b`))", "", ""},
		{"PathPrefix(`/a`) || PathPrefix(`/b`)", "", ""},
		{"Header(`X-Env`, `prod`)", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			cfg := &domain.ServiceConfig{Name: "svc", Location: domain.Location{Rule: tt.rule}}
			p := LocationPayload(cfg)
			assert.Equal(t, "svc", p.Upstream)
			assert.Equal(t, tt.host, p.Host)
			assert.Equal(t, tt.path, p.Path)
		})
	}
}

func TestPayloads_OmitAbsentExtensions(t *testing.T) {
	cfg := &domain.ServiceConfig{
		Name:      "svc",
		Upstreams: []string{"10.0.0.1:80"},
		Location:  domain.Location{Rule: "Host(`a`)"},
	}
	assert.Equal(t, domain.UpstreamPayload{Addrs: []string{"10.0.0.1:80"}}, UpstreamPayload(cfg))
	assert.Equal(t, domain.LocationPayload{Upstream: "svc", Host: "a"}, LocationPayload(cfg))
}

func TestPayloads_Extensions(t *testing.T) {
	cfg := &domain.ServiceConfig{
		Name:      "api",
		Upstreams: []string{"10.0.0.1:80"},
		Location:  domain.Location{Rule: "PathPrefix(`/api`)"},
		Upstream:  &domain.UpstreamOptions{Strategy: strPtr("round_robin")},
		HealthCheck: &domain.HealthCheck{
			Path:     "/health",
			Interval: "10s",
			Timeout:  "5s",
		},
		Middleware: &domain.MiddlewareBundle{
			StripPrefix:          strPtr("/api"),
			AddPrefix:            strPtr("/v2"),
			CustomRequestHeaders: []string{"X-Env:prod"},
		},
	}

	up := UpstreamPayload(cfg)
	assert.Equal(t, "round_robin", up.Algo)
	assert.Equal(t, "http://api/health?check_frequency=10s&read_timeout=5s", up.HealthCheck)

	loc := LocationPayload(cfg)
	assert.Equal(t, "/api", loc.Path)
	assert.Equal(t, `^/api(?:/|$)(.*) /v2/$1`, loc.Rewrite)
	assert.Equal(t, []string{"X-Env:prod"}, loc.ProxyAddHeaders)
}

func TestRewrite(t *testing.T) {
	assert.Equal(t, "", rewrite(&domain.MiddlewareBundle{}))
	assert.Equal(t, `^/api(?:/|$)(.*) /$1`, rewrite(&domain.MiddlewareBundle{StripPrefix: strPtr("/api")}))
	assert.Equal(t, `^(.*) /v1$1`, rewrite(&domain.MiddlewareBundle{AddPrefix: strPtr("/v1")}))
	assert.Equal(t, `^/a\.b(?:/|$)(.*) /$1`, rewrite(&domain.MiddlewareBundle{StripPrefix: strPtr("/a.b")}))
}

// applyRewrite evaluates a rewrite rule the way the proxy does.
func applyRewrite(t *testing.T, rule, path string) string {
	t.Helper()
	parts := strings.SplitN(rule, " ", 2)
	require.Len(t, parts, 2)
	re := regexp.MustCompile(parts[0])
	if !re.MatchString(path) {
		return path
	}
	return re.ReplaceAllString(path, parts[1])
}

func TestRewriteNeverProducesEmptyPath(t *testing.T) {
	tests := []struct {
		name  string
		strip *string
		add   *string
		in    string
		want  string
	}{
		{"strip exact prefix", strPtr("/api"), nil, "/api", "/"},
		{"strip prefix with slash", strPtr("/api"), nil, "/api/", "/"},
		{"strip nested path", strPtr("/api"), nil, "/api/users/1", "/users/1"},
		{"strip ignores partial segment", strPtr("/api"), nil, "/apiary", "/apiary"},
		{"strip trailing slash label", strPtr("/api/"), nil, "/api/users", "/users"},
		{"strip and add", strPtr("/api"), strPtr("/v2"), "/api/users", "/v2/users"},
		{"strip and add exact prefix", strPtr("/api"), strPtr("/v2/"), "/api", "/v2/"},
		{"add only", nil, strPtr("/v1"), "/users", "/v1/users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := rewrite(&domain.MiddlewareBundle{StripPrefix: tt.strip, AddPrefix: tt.add})
			got := applyRewrite(t, rule, tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
		})
	}
}

func TestHealthCheckWithoutPathIsNotSent(t *testing.T) {
	cfg := &domain.ServiceConfig{
		Name:        "svc",
		HealthCheck: &domain.HealthCheck{Interval: "10s"},
	}
	assert.Empty(t, UpstreamPayload(cfg).HealthCheck)
}
