package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
)

// AgentRequest is one prompt or one follow-up action. The action wins when
// both are present.
type AgentRequest struct {
	RequestID string                 `json:"request_id,omitempty"`
	Prompt    string                 `json:"prompt,omitempty"`
	Action    *domain.FollowUpAction `json:"action,omitempty"`
}

// Agent dispatches a prompt or action.
// POST /v1/agent
func (h *Handler) Agent(c echo.Context) error {
	ctx := c.Request().Context()

	var req AgentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	resp, err := h.dispatch(ctx, req)
	if err != nil {
		status := statusFor(err)
		return c.JSON(status, map[string]string{"error": errorMessage(ctx, status, err)})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) dispatch(ctx context.Context, req AgentRequest) (*domain.AgentResponse, error) {
	if req.Action != nil {
		return h.service.HandleAction(ctx, *req.Action)
	}
	return h.service.HandlePrompt(ctx, req.Prompt)
}

// statusFor maps dispatcher errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides provider internals from clients. Caller mistakes and
// configuration errors are reported as is.
func errorMessage(ctx context.Context, status int, err error) string {
	if status != http.StatusInternalServerError || errors.Is(err, domain.ErrConfiguration) {
		return err.Error()
	}
	logger := log.WithComponent("http")
	log.FromContext(ctx, logger).Error().Err(err).Msg("agent request failed")
	return "Failed to run agent"
}
