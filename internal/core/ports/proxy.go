package ports

import (
	"context"
	"errors"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
)

// ErrNotFound is matched by transport errors for objects the proxy does not know.
var ErrNotFound = errors.New("not found")

// ProxyTransport performs single remote calls against the proxy's admin API.
// Every call is idempotent; retry scheduling is the caller's concern.
type ProxyTransport interface {
	PutUpstream(ctx context.Context, name string, upstream domain.UpstreamPayload) error
	PutLocation(ctx context.Context, name string, location domain.LocationPayload) error
	DeleteLocation(ctx context.Context, name string) error
	DeleteUpstream(ctx context.Context, name string) error
}

// ConfigApplier applies and retracts whole service configurations.
type ConfigApplier interface {
	Apply(ctx context.Context, cfg *domain.ServiceConfig) error
	Delete(ctx context.Context, serviceName string) error
}
