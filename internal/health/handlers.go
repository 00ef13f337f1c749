package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
}

func NewHandlers(health *Service) *Handlers {
	return &Handlers{health: health}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetSummary)
}

// GetSummary returns every tracked item. The response code is 503 when
// any item is in error so load balancers can use the endpoint directly.
// GET /api/v1/health
func (h *Handlers) GetSummary(c echo.Context) error {
	summary := h.health.Summary()
	code := http.StatusOK
	if summary.Status == StatusError {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, summary)
}
