package server

import (
	"log"
	"log/slog"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mdherunjalal99/ShopeeTracker/internal/config"
	"github.com/mdherunjalal99/ShopeeTracker/internal/job"
	"github.com/mdherunjalal99/ShopeeTracker/internal/server/handlers"
	"github.com/mdherunjalal99/ShopeeTracker/internal/shopee"
	"github.com/mdherunjalal99/ShopeeTracker/internal/store"
)

// Server is the HTTP service: upload a workbook, poll the run, fetch
// the updated file.
type Server struct {
	router  *gin.Engine
	history *store.Store
}

// NewServer builds the server and all its collaborators from config.
func NewServer(cfg *config.AppConfig, logger *slog.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Fatalf("create data directory: %v", err)
	}

	history, err := store.New(filepath.Join(dataDir, "shopeetracker.db"))
	if err != nil {
		log.Fatalf("initialize run history: %v", err)
	}

	fetcher := shopee.NewFetcher(cfg.Fetch.BaseURL, cfg.Fetch.Timeout(), logger)
	registry := job.NewRegistry(cfg.Jobs.MaxTracked, cfg.Jobs.TTL())
	engine := job.NewEngine(fetcher, registry, history, logger)

	h := handlers.NewHandlers(engine, registry, history,
		filepath.Join(dataDir, "uploads"), cfg.Fetch.DefaultWorkers, logger)

	s := &Server{
		router:  gin.Default(),
		history: history,
	}
	s.setupRoutes(h)

	return s
}

func (s *Server) setupRoutes(h *handlers.Handlers) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		h.RegisterRoutes(api)
	}
}

// Run starts the server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close releases the run-history store.
func (s *Server) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}
