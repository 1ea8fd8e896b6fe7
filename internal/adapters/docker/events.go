package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"

	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
)

func eventFilters() filters.Args {
	return filters.NewArgs(
		filters.Arg("type", string(events.ContainerEventType)),
		filters.Arg("event", string(domain.ActionStart)),
		filters.Arg("event", string(domain.ActionStop)),
		filters.Arg("event", string(domain.ActionDie)),
	)
}

// Events streams container start, stop and die events that happened after
// since. A stream error other than EOF is passed on and the subscription is
// renewed from the last event seen; EOF or cancellation closes the channel.
func (a *Adapter) Events(ctx context.Context, since time.Time) <-chan ports.EventMessage {
	out := make(chan ports.EventMessage)
	go a.streamEvents(ctx, since, out)
	return out
}

func (a *Adapter) streamEvents(ctx context.Context, since time.Time, out chan<- ports.EventMessage) {
	defer close(out)

	for {
		msgs, errs := a.cli.Events(ctx, types.EventsOptions{
			Filters: eventFilters(),
			Since:   formatSince(since),
		})
		a.log.Debug("Subscribed to docker events")

		last, err := forward(ctx, msgs, errs, out)
		if !last.IsZero() {
			since = last.Add(time.Nanosecond)
		}
		if err == nil || errors.Is(err, io.EOF) || ctx.Err() != nil {
			return
		}

		if !send(ctx, out, ports.EventMessage{Err: err}) {
			return
		}
		a.log.WithError(err).Warn("Docker event stream interrupted, resubscribing")

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.reconnectDelay):
		}
	}
}

// forward relays messages until the subscription reports an error. It returns
// the time of the last relayed event.
func forward(ctx context.Context, msgs <-chan events.Message, errs <-chan error, out chan<- ports.EventMessage) (time.Time, error) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case err := <-errs:
			return last, err
		case m := <-msgs:
			ev := eventFromMessage(m)
			if !send(ctx, out, ports.EventMessage{Event: ev}) {
				return last, ctx.Err()
			}
			last = ev.Time
		}
	}
}

func send(ctx context.Context, out chan<- ports.EventMessage, msg ports.EventMessage) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func eventFromMessage(m events.Message) domain.ContainerEvent {
	t := time.Unix(0, m.TimeNano)
	if m.TimeNano == 0 {
		t = time.Unix(m.Time, 0)
	}
	return domain.ContainerEvent{
		ContainerID: m.Actor.ID,
		Action:      domain.EventAction(m.Action),
		Attributes:  copyLabels(m.Actor.Attributes),
		Time:        t,
	}
}

func formatSince(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond())
}
