// Package applier pushes service configurations to the proxy and retracts
// them, retrying transient failures under a bounded exponential backoff.
package applier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
	"github.com/melih/pingap-docker-provider/internal/metrics"
)

// Applier implements ports.ConfigApplier on top of a ProxyTransport.
type Applier struct {
	transport    ports.ProxyTransport
	applyPolicy  RetryPolicy
	deletePolicy RetryPolicy
	log          *logrus.Entry
	metrics      *metrics.Metrics
}

// Option configures an Applier.
type Option func(*Applier)

// WithApplyPolicy sets the retry policy for Apply.
func WithApplyPolicy(p RetryPolicy) Option {
	return func(a *Applier) { a.applyPolicy = p }
}

// WithDeletePolicy sets the retry policy for Delete.
func WithDeletePolicy(p RetryPolicy) Option {
	return func(a *Applier) { a.deletePolicy = p }
}

// WithLogger sets the logger entry.
func WithLogger(log *logrus.Entry) Option {
	return func(a *Applier) { a.log = log }
}

// WithMetrics records attempts and outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Applier) { a.metrics = m }
}

// New creates an Applier. Apply retries for up to 60s and Delete for up to 30s
// unless overridden.
func New(transport ports.ProxyTransport, opts ...Option) *Applier {
	a := &Applier{
		transport:    transport,
		applyPolicy:  DefaultPolicy(DefaultApplyMaxElapsed),
		deletePolicy: DefaultPolicy(DefaultDeleteMaxElapsed),
		log:          logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply upserts the upstream and then the location for cfg. The two calls are
// retried together: every retry starts again from the upstream.
func (a *Applier) Apply(ctx context.Context, cfg *domain.ServiceConfig) error {
	upstream := UpstreamPayload(cfg)
	location := LocationPayload(cfg)
	log := a.log.WithField("service", cfg.Name)
	log.WithFields(logrus.Fields{"upstream": upstream, "location": location}).Debug("Applying service config")

	err := a.retry(ctx, metrics.OperationApply, cfg.Name, a.applyPolicy, func(ctx context.Context) error {
		if err := a.transport.PutUpstream(ctx, cfg.Name, upstream); err != nil {
			return fmt.Errorf("upsert upstream: %w", err)
		}
		if err := a.transport.PutLocation(ctx, cfg.Name, location); err != nil {
			return fmt.Errorf("upsert location: %w", err)
		}
		return nil
	})
	a.metrics.Operation(metrics.OperationApply, err)
	if err != nil {
		return err
	}
	log.Info("Applied service config")
	return nil
}

// Delete removes the location and then the upstream for serviceName. Objects
// the proxy reports as missing count as deleted.
func (a *Applier) Delete(ctx context.Context, serviceName string) error {
	err := a.retry(ctx, metrics.OperationDelete, serviceName, a.deletePolicy, func(ctx context.Context) error {
		if err := a.transport.DeleteLocation(ctx, serviceName); err != nil && !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("delete location: %w", err)
		}
		if err := a.transport.DeleteUpstream(ctx, serviceName); err != nil && !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("delete upstream: %w", err)
		}
		return nil
	})
	a.metrics.Operation(metrics.OperationDelete, err)
	if err != nil {
		return err
	}
	a.log.WithField("service", serviceName).Info("Deleted service config")
	return nil
}

func (a *Applier) retry(ctx context.Context, operation, service string, policy RetryPolicy, op func(context.Context) error) error {
	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		a.metrics.Attempt(operation)
		return struct{}{}, op(ctx)
	},
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxElapsedTime(policy.MaxElapsedTime),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.log.WithFields(logrus.Fields{
				"service":  service,
				"attempt":  attempts,
				"retry_in": next,
			}).WithError(err).Debugf("%s failed, retrying", operation)
		}),
	)
	if err != nil {
		return fmt.Errorf("%s service %s: giving up after %d attempts: %w", operation, service, attempts, err)
	}
	return nil
}

var _ ports.ConfigApplier = (*Applier)(nil)
