package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

type agentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type agentItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toAgentItem(a *model.Agent) agentItem {
	return agentItem{
		ID:          int64(a.ID),
		Name:        a.Name,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func agentIDParam(c *echo.Context) (model.AgentID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return model.AgentID(id), true
}

func (s *Server) handleCreateAgent(c *echo.Context) error {
	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return respondError(c, http.StatusBadRequest, "Agent name is required")
	}

	agent, err := s.repo.CreateAgent(c.Request().Context(), &model.Agent{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondFailure(c, err)
	}

	return respondCreated(c, "Agent created successfully", toAgentItem(agent))
}

func (s *Server) handleListAgents(c *echo.Context) error {
	agents, err := s.repo.ListAgents(c.Request().Context())
	if err != nil {
		return respondFailure(c, err)
	}

	items := make([]agentItem, len(agents))
	for i, a := range agents {
		items[i] = toAgentItem(a)
	}
	return respondOK(c, "", items)
}

func (s *Server) handleGetAgent(c *echo.Context) error {
	id, ok := agentIDParam(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "Invalid agent id. It must be an integer.")
	}

	agent, err := s.repo.GetAgent(c.Request().Context(), id)
	if err != nil {
		return respondFailure(c, err)
	}
	return respondOK(c, "", toAgentItem(agent))
}

func (s *Server) handleUpdateAgent(c *echo.Context) error {
	id, ok := agentIDParam(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "Invalid agent id. It must be an integer.")
	}

	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return respondError(c, http.StatusBadRequest, "Agent name is required")
	}

	agent := &model.Agent{ID: id, Name: req.Name, Description: req.Description}
	if err := s.repo.UpdateAgent(c.Request().Context(), agent); err != nil {
		return respondFailure(c, err)
	}
	return respondOK(c, "Agent updated successfully", toAgentItem(agent))
}

func (s *Server) handleDeleteAgent(c *echo.Context) error {
	id, ok := agentIDParam(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "Invalid agent id. It must be an integer.")
	}

	if err := s.repo.DeleteAgent(c.Request().Context(), id); err != nil {
		return respondFailure(c, err)
	}
	return respondOK(c, "Agent removed successfully", nil)
}

func (s *Server) handleIngestKnowledge(c *echo.Context) error {
	id, ok := agentIDParam(c)
	if !ok {
		return respondError(c, http.StatusBadRequest, "Invalid agent id. It must be an integer.")
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return respondError(c, http.StatusBadRequest, "Text is required")
	}

	ctx := c.Request().Context()
	if _, err := s.repo.GetAgent(ctx, id); err != nil {
		return respondFailure(c, err)
	}

	count, err := s.pipeline.IngestText(ctx, id, req.Text)
	if err != nil {
		return respondFailure(c, err)
	}

	return respondOK(c, "Knowledge base updated", map[string]int{"chunks": count})
}
