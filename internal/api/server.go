// Package api provides the HTTP REST API and WebSocket server for Lumina Core.
//
// It exposes profile management, schedule and suggestion operations, and
// controller registry endpoints to user interfaces (mobile app, web admin),
// plus a WebSocket channel for real-time suggestion updates.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lumina-io/lumina-core/internal/autopilot"
	"github.com/lumina-io/lumina-core/internal/device"
	"github.com/lumina-io/lumina-core/internal/infrastructure/config"
	"github.com/lumina-io/lumina-core/internal/infrastructure/logging"
	"github.com/lumina-io/lumina-core/internal/learning"
	"github.com/lumina-io/lumina-core/internal/profile"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	Profiles    profile.Repository
	Controllers device.Repository
	Autopilot   *autopilot.Orchestrator
	Learner     *learning.Engine
	Runs        autopilot.RunRepository
	ExternalHub *Hub // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for Lumina Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	profiles    profile.Repository
	controllers device.Repository
	autopilot   *autopilot.Orchestrator
	learner     *learning.Engine
	runs        autopilot.RunRepository
	version     string
	server      *http.Server
	tickets     *ticketStore
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if deps.Autopilot == nil {
		return nil, fmt.Errorf("autopilot orchestrator is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		profiles:    deps.Profiles,
		controllers: deps.Controllers,
		autopilot:   deps.Autopilot,
		learner:     deps.Learner,
		runs:        deps.Runs,
		version:     deps.Version,
		tickets:     newTicketStore(),
	}

	// Use externally-provided hub if available (needed when the orchestrator
	// also requires the hub as its suggestion surface).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub and ticket cleanup, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Background goroutines hang off an internal context so Close() can
	// stop them without waiting on the parent.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)
	go s.tickets.sweepLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
	}

	go s.serve()
	return nil
}

// serve runs the listener until shutdown, logging anything other than
// a clean close.
func (s *Server) serve() {
	var err error
	if s.cfg.TLS.Enabled {
		s.logger.Info("api server listening with TLS",
			"address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
		err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	} else {
		s.logger.Info("api server listening", "address", s.server.Addr)
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("api server error", "error", err)
	}
}

// Hub returns the WebSocket hub, creating it if necessary. The hub doubles
// as the orchestrator's suggestion surface, so callers may need it before
// Start() runs.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel() // stops the hub and ticket sweeper
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
