package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultInteractionLimit = 50
	maxInteractionLimit     = 200
)

// ListOperations returns the operation catalog offered to the resolver.
// GET /v1/operations
func (h *Handler) ListOperations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"operations": h.service.Operations(),
	})
}

// ListInteractions returns the newest journal entries.
// GET /v1/interactions?limit=N
func (h *Handler) ListInteractions(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultInteractionLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxInteractionLimit)
	}

	interactions, err := h.service.ListInteractions(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"interactions": interactions,
	})
}
