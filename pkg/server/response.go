package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

// envelope is the response shape shared by all endpoints.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *echo.Context, message string, data any) error {
	return c.JSON(http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *echo.Context, code int, message string) error {
	return c.JSON(code, envelope{Success: false, Message: message})
}

// respondFailure maps known error classes to status codes; anything else is
// a generic internal error so upstream failure details never leak to the
// client.
func respondFailure(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrEmptyQuery), errors.Is(err, model.ErrInvalidReaction), errors.Is(err, model.ErrTrainingExists):
		return respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrAgentNotFound):
		return respondError(c, http.StatusBadRequest, "Sorry, I couldn't find what you're looking for.")
	case errors.Is(err, model.ErrNotFound):
		return respondError(c, http.StatusNotFound, "record not found")
	default:
		return respondError(c, http.StatusInternalServerError, "An internal server error occurred. Please try again.")
	}
}

// pagination is the metadata block for paginated listings.
type pagination struct {
	TotalMessages int64 `json:"totalMessages"`
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int64 `json:"totalPages"`
	PageSize      int   `json:"pageSize"`
}

func newPagination(total int64, page, limit int) pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return pagination{
		TotalMessages: total,
		CurrentPage:   page,
		TotalPages:    totalPages,
		PageSize:      limit,
	}
}
