package stub

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/catalog"
)

// Handlers serves the json-server compatible REST surface.
type Handlers struct {
	store  *Store
	logger zerolog.Logger
}

func NewHandlers(store *Store, logger zerolog.Logger) *Handlers {
	return &Handlers{store: store, logger: logger.With().Str("component", "stub-api").Logger()}
}

// RegisterRoutes registers the catalog routes on e.
func (h *Handlers) RegisterRoutes(e *echo.Echo) {
	e.GET("/db", h.Dump)
	e.GET("/:category", h.List)
	e.GET("/:category/:id", h.Get)
	e.POST("/:category", h.Create)
	e.DELETE("/:category/:id", h.Delete)
}

// NewServer builds an echo instance serving the catalog.
func NewServer(store *Store, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("stub request")
			return nil
		},
	}))

	NewHandlers(store, logger).RegisterRoutes(e)
	return e
}

// Dump returns every category with its records.
// GET /db
func (h *Handlers) Dump(c echo.Context) error {
	db, err := h.store.Dump(c.Request().Context())
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, db)
}

// List returns a category, optionally filtered.
// GET /:category?title=&year=&title_like=
func (h *Handlers) List(c echo.Context) error {
	f := Filter{
		Title:     c.QueryParam("title"),
		Year:      c.QueryParam("year"),
		TitleLike: c.QueryParam("title_like"),
	}
	records, err := h.store.List(c.Request().Context(), c.Param("category"), f)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, records)
}

// Get returns one record.
// GET /:category/:id
func (h *Handlers) Get(c echo.Context) error {
	rec, err := h.store.Get(c.Request().Context(), c.Param("category"), c.Param("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Create stores a record and returns it with its id.
// POST /:category
func (h *Handlers) Create(c echo.Context) error {
	category := c.Param("category")
	if !catalog.ValidCategory(category) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown category")
	}

	var rec Record
	if err := json.NewDecoder(c.Request().Body).Decode(&rec); err != nil || rec == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be a JSON object")
	}

	created, err := h.store.Insert(c.Request().Context(), category, rec)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Delete removes a record.
// DELETE /:category/:id
func (h *Handlers) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("category"), c.Param("id")); err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, map[string]any{})
}

func (h *Handlers) fail(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownCategory):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("stub request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
