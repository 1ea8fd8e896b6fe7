// Package reconciler keeps the proxy in line with the running containers.
//
// A Reconciler performs an initial synchronization from the runtime's snapshot
// and then handles lifecycle events one at a time, in delivery order, on a
// single goroutine. The tracked map is only ever touched by that goroutine;
// readers on other goroutines go through the copy published after each change.
package reconciler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/labels"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
	"github.com/melih/pingap-docker-provider/internal/metrics"
)

// Reconciler drives a ConfigApplier from a ContainerRuntime.
type Reconciler struct {
	runtime ports.ContainerRuntime
	applier ports.ConfigApplier
	log     *logrus.Entry
	metrics *metrics.Metrics
	now     func() time.Time

	// tracked maps container ID to the service name applied for it.
	tracked   map[string]string
	published atomic.Pointer[map[string]string]
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger entry.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithMetrics records events, compilations and the tracked count in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// New creates a Reconciler with an empty tracked map.
func New(runtime ports.ContainerRuntime, applier ports.ConfigApplier, opts ...Option) *Reconciler {
	r := &Reconciler{
		runtime: runtime,
		applier: applier,
		log:     logrus.NewEntry(logrus.StandardLogger()),
		now:     time.Now,
		tracked: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.publish()
	return r
}

// Run synchronizes the running containers and then processes events until
// the event stream ends or ctx is cancelled. Only a failed initial snapshot is
// returned as an error.
//
// Cancellation is checked between events. Apply and delete calls run with a
// context detached from ctx so that a retry sequence in progress completes
// within its own time bound.
func (r *Reconciler) Run(ctx context.Context) error {
	since := r.now()
	if err := r.Sync(ctx); err != nil {
		return err
	}

	events := r.runtime.Events(ctx, since)
	r.log.Info("Listening for container events")

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Received shutdown signal")
			return nil
		case msg, ok := <-events:
			if !ok {
				r.log.Warn("Container event stream ended")
				return nil
			}
			if msg.Err != nil {
				r.metrics.EventStreamError()
				r.log.WithError(msg.Err).Error("Container event stream error")
				continue
			}
			r.handle(context.WithoutCancel(ctx), msg.Event)
		}
	}
}

// Sync applies the configuration of every running, enabled container.
// Per-container failures are logged and skipped.
func (r *Reconciler) Sync(ctx context.Context) error {
	r.log.Info("Performing initial synchronization")

	containers, err := r.runtime.ListRunning(ctx)
	if err != nil {
		return fmt.Errorf("initial synchronization: %w", err)
	}

	applyCtx := context.WithoutCancel(ctx)
	for _, c := range containers {
		if ctx.Err() != nil {
			r.log.Info("Initial synchronization interrupted")
			return nil
		}
		r.configure(applyCtx, c)
	}

	r.log.WithField("services", len(r.tracked)).Info("Initial synchronization complete")
	return nil
}

// Tracked returns the container ID to service name mapping as of the last
// state change. It is safe to call from any goroutine.
func (r *Reconciler) Tracked() map[string]string {
	return copyMap(*r.published.Load())
}

func (r *Reconciler) handle(ctx context.Context, ev domain.ContainerEvent) {
	r.metrics.Event(string(ev.Action))

	switch ev.Action {
	case domain.ActionStart:
		r.onStart(ctx, ev)
	case domain.ActionStop, domain.ActionDie:
		r.onStop(ctx, ev)
	default:
		r.log.WithFields(logrus.Fields{
			"container_id": shortID(ev.ContainerID),
			"action":       ev.Action,
		}).Debug("Ignoring container event")
	}
}

func (r *Reconciler) onStart(ctx context.Context, ev domain.ContainerEvent) {
	log := r.log.WithField("container_id", shortID(ev.ContainerID))
	log.Info("Container started")

	c, err := r.runtime.Inspect(ctx, ev.ContainerID)
	if err != nil {
		log.WithError(err).Error("Failed to inspect started container")
		return
	}
	r.configure(ctx, c)
}

func (r *Reconciler) onStop(ctx context.Context, ev domain.ContainerEvent) {
	log := r.log.WithFields(logrus.Fields{
		"container_id": shortID(ev.ContainerID),
		"action":       ev.Action,
	})
	log.Info("Container stopped")

	// The tracked name takes precedence over the event attributes. The entry
	// is dropped before the delete and is not restored if the delete fails.
	service, ok := r.tracked[ev.ContainerID]
	if ok {
		delete(r.tracked, ev.ContainerID)
		r.publish()
		log.WithField("service", service).Debug("Found tracked service for container")
	} else {
		service, ok = labels.ServiceNameFromAttributes(ev.Attributes)
		if !ok {
			return
		}
	}

	log = log.WithField("service", service)
	log.Info("Removing service config")
	if err := r.applier.Delete(ctx, service); err != nil {
		log.WithError(err).Error("Failed to delete service config")
	}
}

func (r *Reconciler) configure(ctx context.Context, c domain.ContainerSnapshot) {
	log := r.log.WithFields(logrus.Fields{
		"container":    c.Name,
		"container_id": shortID(c.ID),
	})

	cfg, err := labels.Compile(c)
	switch {
	case err != nil:
		r.metrics.Compile(metrics.CompileFailed)
		log.WithError(err).Warn("Invalid pingap labels, container left unconfigured")
		return
	case cfg == nil:
		r.metrics.Compile(metrics.CompileSkipped)
		log.Debug("Container not enabled for pingap")
		return
	}
	r.metrics.Compile(metrics.CompileConfigured)

	log = log.WithField("service", cfg.Name)
	log.Info("Applying config for container")
	if err := r.applier.Apply(ctx, cfg); err != nil {
		log.WithError(err).Error("Failed to apply service config")
		return
	}
	r.tracked[c.ID] = cfg.Name
	r.publish()
}

func (r *Reconciler) publish() {
	snapshot := copyMap(r.tracked)
	r.published.Store(&snapshot)
	r.metrics.Tracked(len(snapshot))
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
