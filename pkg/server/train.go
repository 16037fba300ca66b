package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

type trainingItem struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"messageId"`
	AgentID   int64     `json:"agentId"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTrainingItem(t *model.TrainingExample) trainingItem {
	return trainingItem{
		ID:        t.ID,
		MessageID: t.MessageID,
		AgentID:   int64(t.AgentID),
		Data:      t.Data,
		CreatedAt: t.CreatedAt,
	}
}

func (s *Server) handleCreateTraining(c *echo.Context) error {
	var req struct {
		MessageID int64  `json:"messageId"`
		AgentID   int64  `json:"agentId"`
		Data      string `json:"data"`
	}
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	if req.MessageID == 0 || req.AgentID == 0 || req.Data == "" {
		return respondError(c, http.StatusBadRequest, "Missing required fields: messageId, data, or agentId")
	}

	example, err := s.repo.CreateTrainingExample(c.Request().Context(), req.MessageID, model.AgentID(req.AgentID), req.Data)
	if err != nil {
		return respondFailure(c, err)
	}

	return respondCreated(c, "Training data saved and message issue resolved", toTrainingItem(example))
}

func (s *Server) handleListTraining(c *echo.Context) error {
	agentID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid agentId. It must be an integer.")
	}

	examples, err := s.repo.ListTrainingExamples(c.Request().Context(), model.AgentID(agentID))
	if err != nil {
		return respondFailure(c, err)
	}

	items := make([]trainingItem, len(examples))
	for i, e := range examples {
		items[i] = toTrainingItem(e)
	}

	return respondOK(c, "Train data fetched successfully", items)
}

func (s *Server) handleDeleteTraining(c *echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Invalid train id. It must be an integer.")
	}

	deleted, err := s.repo.DeleteTrainingExample(c.Request().Context(), id)
	if err != nil {
		return respondFailure(c, err)
	}

	return respondOK(c, "Train data deleted successfully", toTrainingItem(deleted))
}
