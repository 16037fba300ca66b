package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/clearsky-ai/clearsky/pkg/repository"
	"github.com/clearsky-ai/clearsky/pkg/usecase/chat"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

// Server is the HTTP boundary. It validates requests, translates pipeline
// and repository errors into status codes and delegates everything else.
type Server struct {
	echo     *echo.Echo
	httpSrv  *http.Server
	pipeline *chat.Pipeline
	repo     repository.Repository
}

func New(pipeline *chat.Pipeline, repo repository.Repository) *Server {
	e := echo.New()

	s := &Server{
		echo:     e,
		pipeline: pipeline,
		repo:     repo,
	}

	e.Use(requestLogger)

	api := e.Group("/api")

	chatGroup := api.Group("/chat")
	chatGroup.POST("/message", s.handleMessage)
	chatGroup.POST("/stream", s.handleStream)
	chatGroup.GET("/messages/:sessionId", s.handleListMessages)
	chatGroup.GET("/reactions/:agentId", s.handleListReactions)
	chatGroup.PUT("/messages/:id/reaction", s.handleUpdateReaction)
	chatGroup.POST("/train", s.handleCreateTraining)
	chatGroup.GET("/train/:agentId", s.handleListTraining)
	chatGroup.DELETE("/train/:id", s.handleDeleteTraining)

	agents := api.Group("/agents")
	agents.POST("", s.handleCreateAgent)
	agents.GET("", s.handleListAgents)
	agents.GET("/:id", s.handleGetAgent)
	agents.PUT("/:id", s.handleUpdateAgent)
	agents.DELETE("/:id", s.handleDeleteAgent)
	agents.POST("/:id/knowledge", s.handleIngestKnowledge)

	return s
}

func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		started := time.Now()
		err := next(c)

		logging.From(c.Request().Context()).Info("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"latency", time.Since(started))
		return err
	}
}
