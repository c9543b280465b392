package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
)

const (
	wsMaxMessageSize = 64 * 1024
	wsWriteTimeout   = 10 * time.Second
)

// AgentReply is one WebSocket reply. Exactly one of the response or the
// error is set.
type AgentReply struct {
	RequestID string `json:"request_id"`
	*domain.AgentResponse
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
}

// AgentWebSocket serves the agent over a WebSocket. Each text frame carries
// one AgentRequest and gets exactly one AgentReply, in order.
// GET /v1/agent/ws
func (h *Handler) AgentWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessageSize)

	logger := log.WithComponent("ws")
	base := c.Request().Context()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read failed")
			}
			return nil
		}

		var req AgentRequest
		if err := json.Unmarshal(message, &req); err != nil {
			if err := writeReply(conn, AgentReply{Error: "invalid message", Status: http.StatusBadRequest}); err != nil {
				return nil
			}
			continue
		}
		if req.RequestID == "" {
			req.RequestID = "req_" + uuid.NewString()
		}

		ctx := log.ContextWithRequestID(base, req.RequestID)
		reply := AgentReply{RequestID: req.RequestID}
		resp, err := h.dispatch(ctx, req)
		if err != nil {
			reply.Status = statusFor(err)
			reply.Error = errorMessage(ctx, reply.Status, err)
		} else {
			reply.AgentResponse = resp
		}

		if err := writeReply(conn, reply); err != nil {
			logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("websocket write failed")
			return nil
		}
	}
}

func writeReply(conn *websocket.Conn, reply AgentReply) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(reply)
}
