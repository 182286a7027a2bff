package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/chat"
	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/pipeline"
)

// Dependencies are the services exposed over HTTP.
type Dependencies struct {
	Pipeline *pipeline.Pipeline
	Tracker  *conversation.Tracker
	Chats    *chat.Service
}

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int

	pipeline *pipeline.Pipeline
	tracker  *conversation.Tracker
	chats    *chat.Service
}

// NewServer creates a new API server
func NewServer(port int, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	tracker := deps.Tracker
	if tracker == nil {
		tracker = conversation.NewTracker()
	}

	server := &Server{
		echo:     e,
		port:     port,
		pipeline: deps.Pipeline,
		tracker:  tracker,
		chats:    deps.Chats,
	}
	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	v1.POST("/diagrams", s.generateDiagram)
	v1.POST("/diagrams/identify", s.identifyDiagram)
	v1.POST("/diagrams/improve", s.improvePrompt)
	v1.POST("/diagrams/generate", s.generateCode)

	v1.POST("/conversations/detect", s.detectConversation)

	v1.GET("/chats/:id", s.openChat)
	v1.DELETE("/chats/:id", s.clearChat)
	v1.POST("/chats/:id/messages", s.sendMessage)
}

// Start serves until an interrupt, then shuts down gracefully.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("shutting down the server")
		}
	}()
	log.Info().Int("port", s.port).Msg("API server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("API server shutting down")
	return s.echo.Shutdown(ctx)
}
