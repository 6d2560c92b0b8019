package handlers

import (
	"context"
	"time"

	"github.com/amirphl/crud-project/app/dto"
	"github.com/amirphl/crud-project/utils"
	"github.com/gofiber/fiber/v3"
)

// StorageProbe reports whether the backing store is reachable
type StorageProbe func(ctx context.Context) error

type HealthHandlerInterface interface {
	Health(c fiber.Ctx) error
}

type HealthHandler struct {
	version string
	probe   StorageProbe
}

func NewHealthHandler(version string, probe StorageProbe) HealthHandlerInterface {
	return &HealthHandler{version: version, probe: probe}
}

// Health reports liveness and storage reachability. It always answers 200
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c fiber.Ctx) error {
	status, storage := "ok", "up"
	if h.probe == nil {
		status, storage = "degraded", "unconfigured"
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.probe(ctx); err != nil {
			status, storage = "degraded", "down"
		}
	}

	return c.Status(fiber.StatusOK).JSON(dto.HealthResponse{
		Status:    status,
		Storage:   storage,
		Version:   h.version,
		Timestamp: utils.UTCNowUnix(),
	})
}
