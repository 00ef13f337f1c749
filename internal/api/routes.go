package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/movieontip/movieontip/internal/api/handlers"
	apimw "github.com/movieontip/movieontip/internal/api/middleware"
	"github.com/movieontip/movieontip/internal/health"
	"github.com/movieontip/movieontip/web"
)

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// Security headers
	s.echo.Use(apimw.SecurityHeaders())

	// Request body size limit
	s.echo.Use(middleware.BodyLimit("1M"))

	// Mutations must come from our own pages
	s.echo.Use(apimw.SameOrigin())

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/metrics" || strings.HasPrefix(p, "/static/")
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.StaticFS("/static", web.Static())

	s.setupPageRoutes()

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}

	api := s.echo.Group("/api/v1")
	api.GET("/categories", s.listCategories)
	api.GET("/views/:id", s.getViewModel)

	s.setupSystemRoutes(api)
}

func (s *Server) setupPageRoutes() {
	s.echo.GET("/", s.home)
	s.echo.GET("/movie/:title", s.movieDetail)

	v := s.echo.Group("/views")
	v.GET("/:id", s.getView)
	v.DELETE("/:id", s.closeView)
	v.POST("/:id/notification/dismiss", s.dismissNotification)

	limit := s.limiter.Middleware()
	v.POST("/:id/search", s.searchView, limit)
	v.POST("/:id/favourites", s.addFavourite, limit)
	v.POST("/:id/favourites/:movieId/delete", s.removeFavourite, limit)
}

func (s *Server) setupSystemRoutes(api *echo.Group) {
	if s.health != nil {
		health.NewHandlers(s.health).RegisterRoutes(api.Group("/health"))
	}
	if s.logs != nil {
		NewLogsHandlers(s.logs).RegisterRoutes(api.Group("/logs"))
	}
	if s.scheduler != nil {
		handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(api.Group("/system/tasks"))
	}
}
