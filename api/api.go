package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/convstore"
	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/graph"
)

const defaultConversationTTL = time.Hour

// Server is the ingest API server for the platelog system
type Server struct {
	config        Config
	executor      *graph.Executor
	conversations convstore.Driver
	entries       foodlog.Store
	logger        *zap.Logger
	app           *fiber.App
}

// NewServer creates a new API server.
// The conversation store and entry store are injected to allow sharing with
// other components (e.g., the background reaper).
func NewServer(config Config, executor *graph.Executor, conversations convstore.Driver, entries foodlog.Store, logger *zap.Logger) *Server {
	if config.ConversationTTL <= 0 {
		config.ConversationTTL = defaultConversationTTL
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:        config,
		executor:      executor,
		conversations: conversations,
		entries:       entries,
		logger:        logger,
		app:           app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/ingest", s.handleIngest)
	app.Get("/v1/log/today", s.handleTodayTotals)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
