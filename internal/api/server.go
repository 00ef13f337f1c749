//nolint:revive // Package name 'api' is intentionally generic for the HTTP API layer
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/api/ratelimit"
	"github.com/movieontip/movieontip/internal/config"
	"github.com/movieontip/movieontip/internal/health"
	"github.com/movieontip/movieontip/internal/metrics"
	"github.com/movieontip/movieontip/internal/scheduler"
	"github.com/movieontip/movieontip/internal/views"
	"github.com/movieontip/movieontip/internal/websocket"
	"github.com/movieontip/movieontip/web"
)

// Browser to server events. A page subscribes to the view it rendered and
// may only close views its socket subscribed to.
const (
	EventViewSubscribe = "view:subscribe"
	EventViewClose     = "view:close"
)

// CategoryLister lists the categories of the catalog backend.
type CategoryLister interface {
	Categories(ctx context.Context) ([]string, error)
}

// Deps are the services the HTTP layer serves. Health, Scheduler, Logs
// and Hub are optional.
type Deps struct {
	Config    *config.Config
	Registry  *views.Registry
	Catalog   CategoryLister
	Hub       *websocket.Hub
	Health    *health.Service
	Scheduler *scheduler.Scheduler
	Logs      LogsProvider
	Logger    zerolog.Logger
}

// Server is the HTTP frontend.
type Server struct {
	echo       *echo.Echo
	cfg        *config.Config
	registry   *views.Registry
	catalog    CategoryLister
	hub        *websocket.Hub
	health     *health.Service
	scheduler  *scheduler.Scheduler
	logs       LogsProvider
	limiter    *ratelimit.Limiter
	renderWait time.Duration
	logger     zerolog.Logger
}

// NewServer creates a new server instance.
func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Registry == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("config, registry and catalog are required")
	}

	renderer, err := NewRenderer(web.Templates())
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	s := &Server{
		echo:       e,
		cfg:        deps.Config,
		registry:   deps.Registry,
		catalog:    deps.Catalog,
		hub:        deps.Hub,
		health:     deps.Health,
		scheduler:  deps.Scheduler,
		logs:       deps.Logs,
		limiter:    ratelimit.New(deps.Config.Server.MutationsPerMinute, time.Minute),
		renderWait: time.Duration(deps.Config.UI.RenderWaitMs) * time.Millisecond,
		logger:     deps.Logger.With().Str("component", "api").Logger(),
	}

	if s.hub != nil {
		s.hub.Handle(EventViewSubscribe, s.handleViewSubscribe)
		s.hub.Handle(EventViewClose, s.handleViewClose)
		s.hub.OnConnectionCount(metrics.SetWSConnections)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func viewIDFrom(payload json.RawMessage) (string, error) {
	var msg struct {
		ViewID string `json:"viewId"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", err
	}
	return msg.ViewID, nil
}

// handleViewSubscribe routes the updates of a mounted view to the sending socket.
func (s *Server) handleViewSubscribe(c *websocket.Client, payload json.RawMessage) error {
	id, err := viewIDFrom(payload)
	if err != nil {
		return err
	}
	if id == "" || !s.registry.Has(id) {
		return nil
	}
	c.Subscribe(id)
	return nil
}

// handleViewClose unmounts the view named by a browser's view:close message.
func (s *Server) handleViewClose(c *websocket.Client, payload json.RawMessage) error {
	id, err := viewIDFrom(payload)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	if !c.Subscribed(id) {
		s.logger.Debug().Str("view", id).Msg("ignoring close of a view the socket does not own")
		return nil
	}
	c.Unsubscribe(id)
	if s.registry.Close(id) {
		s.logger.Debug().Str("view", id).Msg("view closed by client")
	}
	return nil
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Limiter returns the mutation rate limiter so its buckets can be pruned.
func (s *Server) Limiter() *ratelimit.Limiter {
	return s.limiter
}
