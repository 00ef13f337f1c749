package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/catalog"
	"github.com/movieontip/movieontip/internal/viewstate"
)

// DetailModel is everything needed to render a detail view.
type DetailModel struct {
	ID            string           `json:"id"`
	Kind          Kind             `json:"kind"`
	Status        viewstate.Status `json:"status"`
	Error         string           `json:"error,omitempty"`
	NotFound      bool             `json:"notFound"`
	Movie         *catalog.Movie   `json:"movie,omitempty"`
	PosterURL     string           `json:"posterUrl,omitempty"`
	Duration      string           `json:"duration,omitempty"`
	AverageRating string           `json:"averageRating,omitempty"`
}

// DetailView shows one movie resolved by a DetailKey.
type DetailView struct {
	base
	key       DetailKey
	catalog   Catalog
	imageBase string
	loader    *viewstate.Loader[catalog.Movie]
	logger    zerolog.Logger
}

func newDetailView(id string, key DetailKey, cat Catalog, imageBase string, publish publishFunc, logger zerolog.Logger) *DetailView {
	v := &DetailView{
		base:      base{id: id, kind: KindDetail, publish: publish},
		key:       key,
		catalog:   cat,
		imageBase: imageBase,
		loader:    viewstate.NewLoader[catalog.Movie](context.Background()),
		logger:    logger.With().Str("view", id).Str("key", key.Kind.String()).Logger(),
	}
	v.loader.OnChange(func(s viewstate.Snapshot[catalog.Movie]) { v.changed(s.Status) })
	return v
}

func (v *DetailView) Key() DetailKey { return v.key }
func (v *DetailView) Settled() <-chan struct{} { return v.loader.Settled() }

func (v *DetailView) Status() viewstate.Status {
	return v.loader.Snapshot().Status
}

// Load resolves the movie. A title/year lookup with no match settles in
// ERROR_LOADING with catalog.ErrMovieNotFound; with several matches the
// first one wins.
func (v *DetailView) Load() <-chan struct{} {
	key := v.key
	_, done := v.loader.Run(func(ctx context.Context) (catalog.Movie, error) {
		return resolve(ctx, v.catalog, key)
	})
	return done
}

func resolve(ctx context.Context, cat Catalog, key DetailKey) (catalog.Movie, error) {
	switch key.Kind {
	case ByID:
		m, err := cat.Get(ctx, key.Category, key.ID)
		if err != nil {
			return catalog.Movie{}, err
		}
		return *m, nil

	case ByTitleYear:
		matches, err := cat.FindByTitleYear(ctx, key.Category, key.Title, key.Year)
		if err != nil {
			return catalog.Movie{}, err
		}
		if len(matches) == 0 {
			return catalog.Movie{}, fmt.Errorf("%w: %q (%s) in %s", catalog.ErrMovieNotFound, key.Title, key.Year, key.Category)
		}
		return matches[0], nil
	}
	return catalog.Movie{}, ErrInvalidDetailKey
}

// Model snapshots the view for rendering.
func (v *DetailView) Model() DetailModel {
	snap := v.loader.Snapshot()
	m := DetailModel{
		ID:       v.id,
		Kind:     KindDetail,
		Status:   snap.Status,
		Error:    errorText(snap.Err),
		NotFound: errors.Is(snap.Err, catalog.ErrMovieNotFound),
	}

	if snap.Status != viewstate.StatusLoaded {
		return m
	}

	movie := snap.Payload
	m.Movie = &movie
	if movie.Poster != "" {
		m.PosterURL = v.imageBase + "/images/" + movie.Poster
	} else {
		m.PosterURL = movie.PosterURL
	}
	if rt, ok := movie.Runtime(); ok {
		m.Duration = rt.String()
	}
	if movie.AverageRating != nil && *movie.AverageRating >= 0 {
		m.AverageRating = strconv.FormatFloat(*movie.AverageRating, 'f', -1, 64)
	}
	return m
}

// Close unmounts the view.
func (v *DetailView) Close() {
	v.loader.Close()
}
