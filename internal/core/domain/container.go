package domain

import "time"

// NetworkAttachment is one network a container is connected to and its address on it.
type NetworkAttachment struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// ContainerSnapshot is a point-in-time view of a container as reported by the runtime.
// Snapshots are built fresh on every list or inspect call and are never mutated afterwards.
type ContainerSnapshot struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	// PrimaryIP is empty when the runtime reports no default address.
	PrimaryIP string `json:"primary_ip,omitempty"`
	// Networks is ordered by network name.
	Networks []NetworkAttachment `json:"networks"`
	// Ports holds exposed container ports in ascending order.
	Ports []uint16 `json:"ports"`
}

// Label returns the value of a label and whether it is set.
func (c ContainerSnapshot) Label(key string) (string, bool) {
	v, ok := c.Labels[key]
	return v, ok
}

// NetworkIP looks up the container's address on the named network.
func (c ContainerSnapshot) NetworkIP(name string) (string, bool) {
	for _, n := range c.Networks {
		if n.Name == name {
			return n.IP, true
		}
	}
	return "", false
}

// NetworkNames lists the networks the container is attached to.
func (c ContainerSnapshot) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for _, n := range c.Networks {
		names = append(names, n.Name)
	}
	return names
}

// EventAction is a container lifecycle transition reported by the runtime.
type EventAction string

const (
	ActionStart EventAction = "start"
	ActionStop  EventAction = "stop"
	ActionDie   EventAction = "die"
)

// ContainerEvent is a lifecycle event. It only carries the actor's identity and
// coarse attributes (name, image and the container labels), not a full snapshot.
type ContainerEvent struct {
	ContainerID string            `json:"container_id"`
	Action      EventAction       `json:"action"`
	Attributes  map[string]string `json:"attributes"`
	Time        time.Time         `json:"time"`
}
