package http

import (
	"sort"

	"github.com/gofiber/fiber/v2"
)

// ServiceLister exposes the tracked container to service mapping.
type ServiceLister interface {
	Tracked() map[string]string
}

type StatusHandler struct {
	services ServiceLister
}

func NewStatusHandler(services ServiceLister) *StatusHandler {
	return &StatusHandler{services: services}
}

type TrackedService struct {
	ContainerID string `json:"container_id"`
	Service     string `json:"service"`
}

func (h *StatusHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// ListServices returns the tracked services ordered by service name.
func (h *StatusHandler) ListServices(c *fiber.Ctx) error {
	tracked := h.services.Tracked()
	services := make([]TrackedService, 0, len(tracked))
	for id, name := range tracked {
		services = append(services, TrackedService{ContainerID: id, Service: name})
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].Service != services[j].Service {
			return services[i].Service < services[j].Service
		}
		return services[i].ContainerID < services[j].ContainerID
	})
	return c.JSON(services)
}
