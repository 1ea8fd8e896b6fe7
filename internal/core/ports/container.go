package ports

import (
	"context"
	"time"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
)

// EventMessage is one item of the runtime's event feed: either an event or a
// stream error. A stream error does not end the feed; closing the channel does.
type EventMessage struct {
	Event domain.ContainerEvent
	Err   error
}

// ContainerRuntime is the container runtime as seen by the reconciler.
// This interface allows us to switch between Docker and Podman without
// changing the reconciliation logic.
type ContainerRuntime interface {
	// ListRunning returns a snapshot of every running container.
	ListRunning(ctx context.Context) ([]domain.ContainerSnapshot, error)
	// Inspect returns a fresh snapshot of one container.
	Inspect(ctx context.Context, id string) (domain.ContainerSnapshot, error)
	// Events streams start, stop and die events that happened after since.
	// The channel is closed when the feed ends or ctx is cancelled.
	Events(ctx context.Context, since time.Time) <-chan EventMessage
}
