package docker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
)

const defaultNetwork = "bridge"

// apiClient is the part of the Docker client the adapter uses.
type apiClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	Events(ctx context.Context, options types.EventsOptions) (<-chan events.Message, <-chan error)
	Close() error
}

// Adapter implements ports.ContainerRuntime using Docker SDK
type Adapter struct {
	cli            apiClient
	log            *logrus.Entry
	reconnectDelay time.Duration
}

// NewAdapter creates a Docker adapter. An empty host uses the environment
// (DOCKER_HOST and friends) or the default local socket.
func NewAdapter(host string, log *logrus.Entry) (*Adapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return newAdapter(cli, log), nil
}

func newAdapter(cli apiClient, log *logrus.Entry) *Adapter {
	return &Adapter{cli: cli, log: log, reconnectDelay: time.Second}
}

// Ping checks that the daemon is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := a.cli.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach docker daemon: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.cli.Close()
}

// ListRunning returns a snapshot of every running container
func (a *Adapter) ListRunning(ctx context.Context) ([]domain.ContainerSnapshot, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]domain.ContainerSnapshot, 0, len(containers))
	for _, c := range containers {
		result = append(result, snapshotFromSummary(c))
	}
	return result, nil
}

// Inspect returns a fresh snapshot of a single container
func (a *Adapter) Inspect(ctx context.Context, id string) (domain.ContainerSnapshot, error) {
	info, err := a.cli.ContainerInspect(ctx, id)
	if err != nil {
		return domain.ContainerSnapshot{}, fmt.Errorf("failed to inspect container %s: %w", id, err)
	}
	snap := snapshotFromInspect(info)
	if snap.ID == "" {
		snap.ID = id
	}
	return snap, nil
}

func snapshotFromSummary(c types.Container) domain.ContainerSnapshot {
	// Names are usually like ["/container_name"]
	name := ""
	if len(c.Names) > 0 {
		name = c.Names[0]
	}

	var nets map[string]*network.EndpointSettings
	if c.NetworkSettings != nil {
		nets = c.NetworkSettings.Networks
	}

	exposed := make([]uint16, 0, len(c.Ports))
	for _, p := range c.Ports {
		exposed = append(exposed, p.PrivatePort)
	}

	return domain.ContainerSnapshot{
		ID:        c.ID,
		Name:      name,
		Labels:    copyLabels(c.Labels),
		PrimaryIP: defaultNetworkIP(nets),
		Networks:  attachments(nets),
		Ports:     sortedPorts(exposed),
	}
}

func snapshotFromInspect(info types.ContainerJSON) domain.ContainerSnapshot {
	var snap domain.ContainerSnapshot
	if info.ContainerJSONBase != nil {
		snap.ID = info.ID
		snap.Name = info.Name
	}
	if info.Config != nil {
		snap.Labels = copyLabels(info.Config.Labels)
		exposed := make([]uint16, 0, len(info.Config.ExposedPorts))
		for p := range info.Config.ExposedPorts {
			// p is like "80/tcp"
			if n := p.Int(); n > 0 && n <= 65535 {
				exposed = append(exposed, uint16(n))
			}
		}
		snap.Ports = sortedPorts(exposed)
	}
	if info.NetworkSettings != nil {
		snap.PrimaryIP = info.NetworkSettings.IPAddress
		snap.Networks = attachments(info.NetworkSettings.Networks)
	}
	return snap
}

// defaultNetworkIP returns the address on the default bridge network, which is
// what inspect reports as the container's top-level IPAddress. The list API
// only carries per-network settings.
func defaultNetworkIP(nets map[string]*network.EndpointSettings) string {
	if ep := nets[defaultNetwork]; ep != nil {
		return ep.IPAddress
	}
	return ""
}

// attachments keeps networks with an address, ordered by network name.
func attachments(nets map[string]*network.EndpointSettings) []domain.NetworkAttachment {
	out := make([]domain.NetworkAttachment, 0, len(nets))
	for name, ep := range nets {
		if ep == nil || ep.IPAddress == "" {
			continue
		}
		out = append(out, domain.NetworkAttachment{Name: name, IP: ep.IPAddress})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// sortedPorts sorts in place and drops duplicates.
func sortedPorts(list []uint16) []uint16 {
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	out := list[:0]
	for i, p := range list {
		if i > 0 && p == list[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func copyLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

var _ ports.ContainerRuntime = (*Adapter)(nil)
