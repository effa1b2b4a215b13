// Package httpapi exposes the assistant over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	contractx "github.com/merchantkit/assistant/agent/contract"
	"github.com/merchantkit/assistant/agent/supervisor"
)

// genericErrorMessage is returned for unexpected failures so internal detail
// never leaks to the caller.
const genericErrorMessage = "Sorry, something went wrong while processing your request. Please try again."

// Assistant is the conversational engine the handler fronts.
type Assistant interface {
	Chat(ctx context.Context, sessionID, message string) (supervisor.TurnResult, error)
	ChatStream(ctx context.Context, sessionID, message string, sink supervisor.Sink) (supervisor.TurnResult, error)
	Resume(ctx context.Context, sessionID string, action contractx.ResumeAction) (supervisor.TurnResult, error)
	Clear(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string, limit int) ([]contractx.Message, error)
}

// Handler handles HTTP requests.
type Handler struct {
	assistant Assistant
}

// NewHandler creates a new handler.
func NewHandler(assistant Assistant) *Handler {
	return &Handler{assistant: assistant}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/assistant/chat", h.Chat)
	e.POST("/assistant/chat/stream", h.ChatStream)
	e.POST("/assistant/resume", h.Resume)
	e.DELETE("/assistant/chat/:session_id", h.ClearSession)
	e.GET("/assistant/chat/:session_id/history", h.SessionHistory)

	e.GET("/health", h.Health)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID    string                   `json:"session_id"`
	Response     string                   `json:"response"`
	Interruption *supervisor.Interruption `json:"interruption,omitempty"`
}

type resumeRequest struct {
	SessionID string       `json:"session_id"`
	Token     string       `json:"token"`
	Action    resumeAction `json:"action"`
}

type resumeAction struct {
	Decision string         `json:"decision"`
	Args     map[string]any `json:"args"`
}

type historyMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type historyResponse struct {
	SessionID    string           `json:"session_id"`
	MessageCount int              `json:"message_count"`
	Messages     []historyMessage `json:"messages"`
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// Chat runs one conversational turn and returns the final response, or an
// interruption payload when the turn suspended for approval.
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}

	res, err := h.assistant.Chat(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		SessionID:    req.SessionID,
		Response:     res.Response,
		Interruption: res.Interruption,
	})
}

// ChatStream runs one turn, writing each assistant utterance as a chunked
// line. A suspension terminates the stream with the serialized interruption.
func (h *Handler) ChatStream(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	sink := func(content string) {
		if _, err := resp.Write([]byte(content + "\n")); err != nil {
			return
		}
		resp.Flush()
	}

	res, err := h.assistant.ChatStream(c.Request().Context(), req.SessionID, req.Message, sink)
	if err != nil {
		// Headers are out; all that remains is a readable last line.
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("stream turn failed")
		resp.Write([]byte(streamErrorLine(err) + "\n"))
		resp.Flush()
		return nil
	}

	if res.Interruption != nil {
		raw, err := json.Marshal(res.Interruption)
		if err != nil {
			// Unserializable args must not hide the suspension from the
			// client; fall back to the human-readable message.
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("marshal interruption")
			raw = []byte(res.Interruption.Message)
		}
		resp.Write(raw)
		resp.Write([]byte("\n"))
		resp.Flush()
	}
	return nil
}

// Resume applies the human verdict for a pending interrupt.
func (h *Handler) Resume(c echo.Context) error {
	var req resumeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}

	action := contractx.ResumeAction{
		Token:    req.Token,
		Decision: contractx.ResumeDecision(req.Action.Decision),
		Args:     req.Action.Args,
	}

	res, err := h.assistant.Resume(c.Request().Context(), req.SessionID, action)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		SessionID:    req.SessionID,
		Response:     res.Response,
		Interruption: res.Interruption,
	})
}

// ClearSession deletes a session. Clearing an unknown session succeeds.
func (h *Handler) ClearSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	if err := h.assistant.Clear(c.Request().Context(), sessionID); err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Session " + sessionID + " cleared.",
	})
}

// SessionHistory returns up to limit transcript messages, oldest first.
func (h *Handler) SessionHistory(c echo.Context) error {
	sessionID := c.Param("session_id")

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	messages, err := h.assistant.History(c.Request().Context(), sessionID, limit)
	if err != nil {
		return h.writeError(c, err)
	}

	out := historyResponse{
		SessionID:    sessionID,
		MessageCount: len(messages),
		Messages:     make([]historyMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		out.Messages = append(out.Messages, historyMessage{
			Type:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, contractx.ErrValidation), errors.Is(err, contractx.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, contractx.ErrStaleInterrupt):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, contractx.ErrUpstreamTimeout):
		return c.JSON(http.StatusGatewayTimeout, map[string]string{"error": "The upstream service timed out. Please try again."})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": genericErrorMessage})
	}
}

func streamErrorLine(err error) string {
	switch {
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, contractx.ErrInvalidState),
		errors.Is(err, contractx.ErrStaleInterrupt):
		return err.Error()
	case errors.Is(err, contractx.ErrUpstreamTimeout):
		return "The upstream service timed out. Please try again."
	default:
		return genericErrorMessage
	}
}
