// Package server is the gin HTTP layer: routing, middleware, request DTOs,
// and the mapping from domain errors to the JSON error envelope.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gradplan/internal/config"
	"gradplan/internal/models"
	"gradplan/internal/planner"
	"gradplan/internal/roadmap"
	"gradplan/internal/store"
)

// RoadmapGenerator is what the roadmap handlers call. Nil when no OpenAI
// key is configured; the generate endpoint then answers 503.
type RoadmapGenerator interface {
	Generate(ctx context.Context, req roadmap.Request, program models.Program, catalog planner.Catalog) (roadmap.Response, error)
}

// Server wires the store, planner, and roadmap generator behind HTTP.
type Server struct {
	cfg       config.Config
	store     *store.Store
	generator RoadmapGenerator
	log       *zap.Logger
	engine    *gin.Engine
}

// New builds the server and its routes. generator may be nil.
func New(cfg config.Config, st *store.Store, generator RoadmapGenerator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, store: st, generator: generator, log: log}

	engine := gin.New()
	engine.Use(s.requestID(), s.requestLogger(), gin.Recovery(), s.cors())

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api/v1")
	{
		api.GET("/courses", s.handleListCourses)
		api.GET("/courses/:code", s.handleGetCourse)
		api.POST("/courses/:code/prerequisites/check", s.handleCheckPrerequisites)
		api.GET("/courses/:code/prerequisites/tree", s.handlePrerequisiteTree)

		api.GET("/programs", s.handleListPrograms)
		api.GET("/programs/:code", s.handleGetProgram)
		api.POST("/programs/:code/validate", s.handleValidateProgram)
		api.POST("/programs/:code/next-courses", s.handleNextCourses)
		api.POST("/programs/:code/special-rules", s.handleSpecialRules)

		api.POST("/roadmap/generate", s.handleGenerateRoadmap)
		api.POST("/roadmap/validate", s.handleValidateRoadmap)
		api.POST("/roadmap/requirements/check", s.handleCheckRequirements)
	}

	s.engine = engine
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.cfg.AllowedOrigins))
	for _, origin := range s.cfg.AllowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "gradplan",
		"docs":    "/api/v1",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "gradplan",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// sendError writes the error envelope.
func sendError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:    "error",
		ErrorCode: code,
		Message:   message,
		Details:   details,
	})
}

// fail maps domain errors onto the envelope: not-found sentinels become 404,
// everything else 500.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrCourseNotFound), errors.Is(err, store.ErrProgramNotFound):
		sendError(c, http.StatusNotFound, codeNotFound, err.Error(), "")
	default:
		s.log.Error("request failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")))
		sendError(c, http.StatusInternalServerError, codeInternal, "internal error", err.Error())
	}
}
