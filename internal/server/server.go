package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/michaelzhang78901-alt/freight-tracker/internal/model"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/service"
	"github.com/michaelzhang78901-alt/freight-tracker/internal/storage"
)

// Trigger runs an on-demand aggregation.
type Trigger interface {
	RunOnce(ctx context.Context) (model.Snapshot, error)
}

// Options parameterise the HTTP server.
type Options struct {
	ListenAddr string
	StaticDir  string
}

// Server exposes the read endpoints over the store, the on-demand trigger,
// and the static dashboard.
type Server struct {
	engine  *gin.Engine
	store   storage.SnapshotStore
	trigger Trigger
	logger  zerolog.Logger
	http    *http.Server
}

// New constructs the API server and registers all routes.
func New(opts Options, store storage.SnapshotStore, trigger Trigger, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	s := &Server{
		engine:  engine,
		store:   store,
		trigger: trigger,
		logger:  logger.With().Str("component", "server").Logger(),
		http: &http.Server{
			Addr:         opts.ListenAddr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.registerRoutes(opts.StaticDir)
	return s
}

func (s *Server) registerRoutes(staticDir string) {
	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)

	rates := api.Group("/rates")
	{
		rates.GET("/current", s.handleCurrent)
		rates.GET("/history", s.handleHistory)
		rates.GET("/differential", s.handleDifferential)
		rates.POST("/update", s.handleUpdate)
	}

	if staticDir != "" {
		index := filepath.Join(staticDir, "index.html")
		s.engine.StaticFile("/", index)
		s.engine.Static("/static", filepath.Join(staticDir, "static"))
		s.engine.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
				return
			}
			c.File(index)
		})
	}
}

func (s *Server) handleCurrent(c *gin.Context) {
	snapshot := s.store.LoadSnapshot()
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.LoadHistory()})
}

func (s *Server) handleDifferential(c *gin.Context) {
	snapshot := s.store.LoadSnapshot()
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no data"})
		return
	}
	if snapshot.Differential == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "missing rate data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"date":         snapshot.Date,
		"timestamp":    snapshot.Timestamp,
		"fbx01":        snapshot.Routes[model.RouteFBX01].Rate,
		"fbx11":        snapshot.Routes[model.RouteFBX11].Rate,
		"differential": snapshot.Differential,
	}})
}

func (s *Server) handleUpdate(c *gin.Context) {
	snapshot, err := s.trigger.RunOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrScrapeFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "scraping failed"})
			return
		}
		s.logger.Error().Err(err).Msg("on-demand aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

func (s *Server) handleHealth(c *gin.Context) {
	snapshot := s.store.LoadSnapshot()
	history := s.store.LoadHistory()

	payload := gin.H{
		"status":        "ok",
		"hasData":       snapshot != nil,
		"historyLength": len(history),
		"lastUpdated":   nil,
	}
	if snapshot != nil {
		payload["lastUpdated"] = snapshot.Timestamp
	}
	c.JSON(http.StatusOK, payload)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the underlying engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
