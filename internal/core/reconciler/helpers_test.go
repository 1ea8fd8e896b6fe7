package reconciler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/labels"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
)

type fakeRuntime struct {
	running    []domain.ContainerSnapshot
	listErr    error
	inspect    map[string]domain.ContainerSnapshot
	inspectErr map[string]error
	events     chan ports.EventMessage
	since      time.Time
}

func newFakeRuntime(running ...domain.ContainerSnapshot) *fakeRuntime {
	return &fakeRuntime{
		running:    running,
		inspect:    map[string]domain.ContainerSnapshot{},
		inspectErr: map[string]error{},
		events:     make(chan ports.EventMessage),
	}
}

func (f *fakeRuntime) ListRunning(context.Context) ([]domain.ContainerSnapshot, error) {
	return f.running, f.listErr
}

func (f *fakeRuntime) Inspect(_ context.Context, id string) (domain.ContainerSnapshot, error) {
	if err := f.inspectErr[id]; err != nil {
		return domain.ContainerSnapshot{}, err
	}
	c, ok := f.inspect[id]
	if !ok {
		return domain.ContainerSnapshot{}, fmt.Errorf("no such container: %s", id)
	}
	return c, nil
}

func (f *fakeRuntime) Events(_ context.Context, since time.Time) <-chan ports.EventMessage {
	f.since = since
	return f.events
}

type fakeApplier struct {
	calls     []string
	applied   map[string]*domain.ServiceConfig
	applyErr  map[string]error
	deleteErr map[string]error
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{
		applied:   map[string]*domain.ServiceConfig{},
		applyErr:  map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (f *fakeApplier) Apply(_ context.Context, cfg *domain.ServiceConfig) error {
	f.calls = append(f.calls, "apply "+cfg.Name)
	if err := f.applyErr[cfg.Name]; err != nil {
		return err
	}
	f.applied[cfg.Name] = cfg
	return nil
}

func (f *fakeApplier) Delete(_ context.Context, name string) error {
	f.calls = append(f.calls, "delete "+name)
	if err := f.deleteErr[name]; err != nil {
		return err
	}
	delete(f.applied, name)
	return nil
}

var errRemote = errors.New("giving up after retries")

func container(id, name string, kv ...string) domain.ContainerSnapshot {
	l := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		l[kv[i]] = kv[i+1]
	}
	return domain.ContainerSnapshot{
		ID:        id,
		Name:      "/" + name,
		Labels:    l,
		PrimaryIP: "10.0.0.5",
		Ports:     []uint16{8080},
	}
}

func enabledContainer(id, name, host string) domain.ContainerSnapshot {
	return container(id, name, labels.Enable, "true", labels.HTTPHost, host)
}

func newTestReconciler(rt ports.ContainerRuntime, ap ports.ConfigApplier) (*Reconciler, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(rt, ap, WithLogger(logrus.NewEntry(logger))), hook
}

// runLoop starts Run and returns a function that closes the event stream and
// waits for Run to return.
func runLoop(t *testing.T, r *Reconciler, rt *fakeRuntime) func() error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	return func() error {
		close(rt.events)
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("reconciler did not stop after the event stream closed")
			return nil
		}
	}
}

func send(t *testing.T, rt *fakeRuntime, msg ports.EventMessage) {
	t.Helper()
	select {
	case rt.events <- msg:
	case <-time.After(5 * time.Second):
		t.Fatal("reconciler is not consuming events")
	}
}

func event(action domain.EventAction, id string, attrs map[string]string) ports.EventMessage {
	return ports.EventMessage{Event: domain.ContainerEvent{ContainerID: id, Action: action, Attributes: attrs}}
}

func warnings(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel || e.Level == logrus.ErrorLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func requireTracked(t *testing.T, r *Reconciler, want map[string]string) {
	t.Helper()
	require.Equal(t, want, r.Tracked())
}
