package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

type messageRequest struct {
	Query     string `json:"query"`
	AgentID   int64  `json:"agentId"`
	SessionID string `json:"sessionId"`
}

type messageItem struct {
	ID        int64     `json:"id"`
	AgentID   int64     `json:"agentId"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Reaction  *int      `json:"reaction"`
	Issue     *int      `json:"issue"`
	CreatedAt time.Time `json:"createdAt"`
	Index     int64     `json:"index,omitempty"`
}

func toMessageItem(m *model.Message) messageItem {
	return messageItem{
		ID:        m.ID,
		AgentID:   int64(m.AgentID),
		SessionID: string(m.SessionID),
		Sender:    string(m.Sender),
		Content:   m.Content,
		Reaction:  m.Reaction,
		Issue:     m.Issue,
		CreatedAt: m.CreatedAt,
		Index:     m.Index,
	}
}

func (s *Server) handleMessage(c *echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" || req.AgentID == 0 || req.SessionID == "" {
		return respondError(c, http.StatusBadRequest, "Missing query, agentId, or sessionId.")
	}

	ctx := c.Request().Context()
	agentID := model.AgentID(req.AgentID)

	if _, err := s.repo.GetAgent(ctx, agentID); err != nil {
		return respondFailure(c, err)
	}

	answer, err := s.pipeline.GetAnswer(ctx, req.Query, agentID, model.SessionID(req.SessionID))
	if err != nil {
		logging.From(ctx).Error("failed to answer question", "error", err)
		return respondFailure(c, err)
	}

	return respondOK(c, "Response successfully generated.", answer)
}

func (s *Server) handleStream(c *echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" || req.AgentID == 0 || req.SessionID == "" {
		return respondError(c, http.StatusBadRequest, "Missing query, agentId, or sessionId.")
	}

	ctx := c.Request().Context()
	agentID := model.AgentID(req.AgentID)

	if _, err := s.repo.GetAgent(ctx, agentID); err != nil {
		return respondFailure(c, err)
	}

	rw := c.Response()
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.WriteHeader(http.StatusOK)

	emit := func(eventType, payload string) error {
		data, _ := json.Marshal(map[string]string{"type": eventType, "content": payload})
		if _, err := fmt.Fprintf(rw, "data: %s\n\n", data); err != nil {
			return err
		}
		if f, ok := rw.(http.Flusher); ok {
			f.Flush()
		}
		return nil
	}

	err := s.pipeline.GetAnswerStream(ctx, req.Query, agentID, model.SessionID(req.SessionID), func(chunk string) error {
		return emit("chunk", chunk)
	})
	if err != nil {
		logging.From(ctx).Error("failed to stream answer", "error", err)
		_ = emit("error", "An internal server error occurred. Please try again.")
		return nil
	}

	_ = emit("done", "")
	return nil
}

func (s *Server) handleListMessages(c *echo.Context) error {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		return respondError(c, http.StatusBadRequest, "Session ID is required")
	}
	page, limit := pageParams(c)
	offset := (page - 1) * limit

	msgs, total, err := s.repo.ListMessages(c.Request().Context(), model.SessionID(sessionID), offset, limit)
	if err != nil {
		return respondFailure(c, err)
	}

	// Messages arrive newest-first; indices count from the newest message,
	// then the page is flipped so clients render oldest-first.
	items := make([]messageItem, len(msgs))
	for i, m := range msgs {
		m.Index = total - int64(offset+i)
		items[len(msgs)-1-i] = toMessageItem(m)
	}

	return respondOK(c, "", map[string]any{
		"messages":   items,
		"pagination": newPagination(total, page, limit),
	})
}

func (s *Server) handleListReactions(c *echo.Context) error {
	agentID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid agentId. It must be an integer.")
	}
	page, limit := pageParams(c)
	offset := (page - 1) * limit

	msgs, total, err := s.repo.ListOpenIssues(c.Request().Context(), model.AgentID(agentID), offset, limit)
	if err != nil {
		return respondFailure(c, err)
	}

	items := make([]messageItem, len(msgs))
	for i, m := range msgs {
		items[i] = toMessageItem(m)
	}

	return respondOK(c, "", map[string]any{
		"messages":   items,
		"pagination": newPagination(total, page, limit),
	})
}

func (s *Server) handleUpdateReaction(c *echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid message id. It must be an integer.")
	}

	var req struct {
		Reaction *int `json:"reaction"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Reaction != nil && *req.Reaction != 0 && *req.Reaction != 1 {
		return respondError(c, http.StatusBadRequest, "Reaction must be 0, 1, or null.")
	}

	msg, err := s.repo.UpdateReaction(c.Request().Context(), messageID, req.Reaction)
	if err != nil {
		return respondFailure(c, err)
	}

	return respondOK(c, "Reaction updated successfully!", toMessageItem(msg))
}

func pageParams(c *echo.Context) (page, limit int) {
	q := c.Request().URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
