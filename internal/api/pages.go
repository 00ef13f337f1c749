package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/movieontip/movieontip/internal/views"
	"github.com/movieontip/movieontip/internal/viewstate"
)

// home mounts the menu or the list of the selected tab.
// GET /?tab=<slug>
func (s *Server) home(c echo.Context) error {
	tab := views.ParseTab(c.QueryParam("tab"))

	var v views.View
	if tab.IsHome() {
		v = s.registry.MountMenu()
	} else {
		v = s.registry.MountList(tab)
	}

	s.awaitSettled(c.Request().Context(), v.Settled())
	return s.render(c, http.StatusOK, v)
}

// movieDetail mounts a detail view.
// GET /movie/:title?category=&id= or ?category=&year=
func (s *Server) movieDetail(c echo.Context) error {
	title := c.Param("title")
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}

	key, err := views.ParseDetailKey(title, c.QueryParams())
	if err != nil {
		s.logger.Debug().Err(err).Str("title", title).Msg("rejected detail key")
		d := ViewData{
			Kind:   views.KindDetail,
			Status: viewstate.StatusErrorLoading,
			Detail: &views.DetailModel{Kind: views.KindDetail, Status: viewstate.StatusErrorLoading, NotFound: true},
		}
		return c.Render(http.StatusNotFound, templatePage, pageData(d, views.Tab{}, "Not found"))
	}

	v := s.registry.MountDetail(key)
	s.awaitSettled(c.Request().Context(), v.Settled())
	return s.render(c, http.StatusOK, v)
}

// getView renders the current state of a mounted view.
// GET /views/:id
func (s *Server) getView(c echo.Context) error {
	v, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return viewError(c, err)
	}
	return s.render(c, http.StatusOK, v)
}

// searchView runs a search in a list view.
// POST /views/:id/search (form: q)
func (s *Server) searchView(c echo.Context) error {
	lv, err := s.registry.List(c.Param("id"))
	if err != nil {
		return viewError(c, err)
	}

	done := lv.Search(c.FormValue("q"))
	s.awaitSettled(c.Request().Context(), done)
	return s.render(c, http.StatusOK, lv)
}

// addFavourite copies a listed movie into the favourites. Duplicates and
// backend failures surface as the view's notification.
// POST /views/:id/favourites (form: movieId)
func (s *Server) addFavourite(c echo.Context) error {
	lv, err := s.registry.List(c.Param("id"))
	if err != nil {
		return viewError(c, err)
	}

	err = lv.AddFavouriteByID(c.Request().Context(), c.FormValue("movieId"))
	if errors.Is(err, views.ErrUnknownMovie) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return s.render(c, http.StatusOK, lv)
}

// removeFavourite deletes a favourite and reloads the list.
// POST /views/:id/favourites/:movieId/delete
func (s *Server) removeFavourite(c echo.Context) error {
	lv, err := s.registry.List(c.Param("id"))
	if err != nil {
		return viewError(c, err)
	}

	if err := lv.RemoveFavourite(c.Request().Context(), c.Param("movieId")); err == nil {
		s.awaitSettled(c.Request().Context(), lv.Settled())
	}
	return s.render(c, http.StatusOK, lv)
}

// dismissNotification hides the notification of a list view.
// POST /views/:id/notification/dismiss
func (s *Server) dismissNotification(c echo.Context) error {
	lv, err := s.registry.List(c.Param("id"))
	if err != nil {
		return viewError(c, err)
	}
	lv.DismissNotification()
	return s.render(c, http.StatusOK, lv)
}

// closeView unmounts a view.
// DELETE /views/:id
func (s *Server) closeView(c echo.Context) error {
	if !s.registry.Close(c.Param("id")) {
		c.Response().Header().Set(headerViewGone, "1")
		return echo.NewHTTPError(http.StatusNotFound, views.ErrViewNotFound.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// getViewModel returns the model of a mounted view as JSON.
// GET /api/v1/views/:id
func (s *Server) getViewModel(c echo.Context) error {
	v, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return viewError(c, err)
	}

	d := viewData(v)
	switch {
	case d.List != nil:
		return c.JSON(http.StatusOK, d.List)
	case d.Detail != nil:
		return c.JSON(http.StatusOK, d.Detail)
	default:
		return c.JSON(http.StatusOK, d.Menu)
	}
}

// listCategories returns the categories known to the backend.
// GET /api/v1/categories
func (s *Server) listCategories(c echo.Context) error {
	categories, err := s.catalog.Categories(c.Request().Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list categories")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string][]string{"categories": categories})
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// render writes the view section when the request asks for a fragment and
// the whole page otherwise.
func (s *Server) render(c echo.Context, status int, v views.View) error {
	d := viewData(v)
	if c.Request().Header.Get(headerFragment) != "" {
		return c.Render(status, templateView, d)
	}
	active := activeTab(v)
	return c.Render(status, templatePage, pageData(d, active, pageTitle(d, active)))
}

// awaitSettled gives a fetch a short head start so most pages render
// loaded. Slower fetches render LOADING and are refreshed over the socket.
func (s *Server) awaitSettled(ctx context.Context, done <-chan struct{}) {
	if s.renderWait <= 0 {
		return
	}
	timer := time.NewTimer(s.renderWait)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
	case <-ctx.Done():
	}
}

func viewError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, views.ErrViewNotFound):
		c.Response().Header().Set(headerViewGone, "1")
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, views.ErrWrongViewKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
