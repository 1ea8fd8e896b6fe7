package reconciler

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/pingap-docker-provider/internal/core/applier"
	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/labels"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
)

type recordingTransport struct {
	calls     []string
	upstreams map[string]domain.UpstreamPayload
	locations map[string]domain.LocationPayload
}

func (r *recordingTransport) PutUpstream(_ context.Context, name string, p domain.UpstreamPayload) error {
	r.calls = append(r.calls, "POST /upstreams/"+name)
	r.upstreams[name] = p
	return nil
}

func (r *recordingTransport) PutLocation(_ context.Context, name string, p domain.LocationPayload) error {
	r.calls = append(r.calls, "POST /locations/"+name)
	r.locations[name] = p
	return nil
}

func (r *recordingTransport) DeleteLocation(_ context.Context, name string) error {
	r.calls = append(r.calls, "DELETE /locations/"+name)
	if _, ok := r.locations[name]; !ok {
		return ports.ErrNotFound
	}
	delete(r.locations, name)
	return nil
}

func (r *recordingTransport) DeleteUpstream(_ context.Context, name string) error {
	r.calls = append(r.calls, "DELETE /upstreams/"+name)
	if _, ok := r.upstreams[name]; !ok {
		return ports.ErrNotFound
	}
	delete(r.upstreams, name)
	return nil
}

func TestEndToEnd_StartAndStop(t *testing.T) {
	tr := &recordingTransport{
		upstreams: map[string]domain.UpstreamPayload{},
		locations: map[string]domain.LocationPayload{},
	}
	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)

	rt := newFakeRuntime()
	rt.inspect["c0ffee"] = domain.ContainerSnapshot{
		ID:   "c0ffee",
		Name: "/whoami",
		Labels: map[string]string{
			labels.Enable:      "true",
			labels.HTTPHost:    "a.test",
			labels.ServicePort: "9000",
		},
		PrimaryIP: "10.0.0.5",
	}
	r := New(rt, applier.New(tr, applier.WithLogger(log)), WithLogger(log))

	stop := runLoop(t, r, rt)
	send(t, rt, event(domain.ActionStart, "c0ffee", map[string]string{"name": "whoami"}))
	send(t, rt, event(domain.ActionDie, "c0ffee", map[string]string{"name": "whoami"}))
	require.NoError(t, stop())

	assert.Equal(t, []string{
		"POST /upstreams/whoami",
		"POST /locations/whoami",
		"DELETE /locations/whoami",
		"DELETE /upstreams/whoami",
	}, tr.calls)
	assert.Empty(t, tr.upstreams)
	assert.Empty(t, tr.locations)
	requireTracked(t, r, map[string]string{})
}

func TestEndToEnd_AppliedPayloads(t *testing.T) {
	tr := &recordingTransport{
		upstreams: map[string]domain.UpstreamPayload{},
		locations: map[string]domain.LocationPayload{},
	}
	rt := newFakeRuntime(domain.ContainerSnapshot{
		ID:        "c0ffee",
		Name:      "/whoami",
		Labels:    map[string]string{labels.Enable: "true", labels.HTTPHost: "a.test", labels.ServicePort: "9000"},
		PrimaryIP: "10.0.0.5",
	})
	r, _ := newTestReconciler(rt, applier.New(tr))

	require.NoError(t, r.Sync(context.Background()))
	assert.Equal(t, domain.UpstreamPayload{Addrs: []string{"10.0.0.5:9000"}}, tr.upstreams["whoami"])
	assert.Equal(t, domain.LocationPayload{Upstream: "whoami", Host: "a.test"}, tr.locations["whoami"])
}
