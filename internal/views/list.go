package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/catalog"
	"github.com/movieontip/movieontip/internal/metrics"
	"github.com/movieontip/movieontip/internal/viewstate"
)

const maxCardTitle = 23

// Card is one movie tile of a list view.
type Card struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	FullTitle string `json:"fullTitle"`
	Year      string `json:"year"`
	PosterURL string `json:"posterUrl,omitempty"`
	DetailURL string `json:"detailUrl"`
}

// ListModel is everything needed to render a list view.
type ListModel struct {
	ID           string           `json:"id"`
	Kind         Kind             `json:"kind"`
	Status       viewstate.Status `json:"status"`
	Error        string           `json:"error,omitempty"`
	Category     string           `json:"category"`
	Heading      string           `json:"heading"`
	Favourites   bool             `json:"favourites"`
	Search       string           `json:"search"`
	Cards        []Card           `json:"cards"`
	Empty        bool             `json:"empty"`
	Notification Notification     `json:"notification"`
}

// ListView lists the movies of one category, searches within it and
// mutates favourites.
type ListView struct {
	base
	tab     Tab
	catalog Catalog
	loader  *viewstate.Loader[[]catalog.Movie]
	notes   *notifier
	logger  zerolog.Logger

	mu     sync.Mutex
	search string
}

func newListView(id string, tab Tab, cat Catalog, noteDelay time.Duration, publish publishFunc, logger zerolog.Logger) *ListView {
	v := &ListView{
		base:    base{id: id, kind: KindList, publish: publish},
		tab:     tab,
		catalog: cat,
		loader:  viewstate.NewLoader[[]catalog.Movie](context.Background()),
		logger:  logger.With().Str("view", id).Str("category", tab.Category()).Logger(),
	}
	v.notes = newNotifier(noteDelay, func() { v.changed(v.Status()) })
	v.loader.OnChange(func(s viewstate.Snapshot[[]catalog.Movie]) { v.changed(s.Status) })
	return v
}

func (v *ListView) Tab() Tab { return v.tab }
func (v *ListView) Category() string { return v.tab.Category() }
func (v *ListView) Favourites() bool { return v.Category() == catalog.FavouritesCategory }
func (v *ListView) Settled() <-chan struct{} { return v.loader.Settled() }

func (v *ListView) Status() viewstate.Status {
	return v.loader.Snapshot().Status
}

// Load fetches every movie of the category and clears the search text.
func (v *ListView) Load() <-chan struct{} {
	v.mu.Lock()
	v.search = ""
	v.mu.Unlock()

	category := v.Category()
	_, done := v.loader.Run(func(ctx context.Context) ([]catalog.Movie, error) {
		return v.catalog.List(ctx, category)
	})
	return done
}

// Search fetches the movies whose title contains text. An empty text is
// the same as Load. A newer search supersedes any in-flight one.
func (v *ListView) Search(text string) <-chan struct{} {
	if text == "" {
		return v.Load()
	}

	v.mu.Lock()
	v.search = text
	v.mu.Unlock()

	category := v.Category()
	_, done := v.loader.Run(func(ctx context.Context) ([]catalog.Movie, error) {
		return v.catalog.Search(ctx, category, text)
	})
	return done
}

// Movie returns the listed movie with the given id. Movies without an id
// are never matched.
func (v *ListView) Movie(id string) (catalog.Movie, bool) {
	if id == "" {
		return catalog.Movie{}, false
	}
	for _, m := range v.loader.Snapshot().Payload {
		if m.ID.String() == id {
			return m, true
		}
	}
	return catalog.Movie{}, false
}

// AddFavouriteByID adds a movie currently shown by the view.
func (v *ListView) AddFavouriteByID(ctx context.Context, movieID string) error {
	m, ok := v.Movie(movieID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMovie, movieID)
	}
	return v.AddFavourite(ctx, m)
}

// AddFavourite stores movie in the favourites unless a movie with the same
// title and year is already there. The lookup and the insert are separate
// requests, so two concurrent adds of the same movie can both succeed.
func (v *ListView) AddFavourite(ctx context.Context, movie catalog.Movie) error {
	existing, err := v.catalog.FindByTitleYear(ctx, catalog.FavouritesCategory, movie.Title, movie.Year)
	if err != nil {
		return v.mutationFailed("add", err)
	}

	if len(existing) > 0 {
		metrics.RecordFavouriteMutation("add", "duplicate")
		v.notes.show(NotifyError, msgDuplicate)
		return ErrDuplicateFavourite
	}

	created, err := v.catalog.AddFavourite(ctx, movie)
	if err != nil {
		return v.mutationFailed("add", err)
	}

	metrics.RecordFavouriteMutation("add", "ok")
	v.logger.Info().Str("title", created.Title).Str("favouriteId", created.ID.String()).Msg("added favourite")
	v.notes.show(NotifySuccess, msgAdded)
	return nil
}

// RemoveFavourite deletes a favourite, reloads the list and reports success.
func (v *ListView) RemoveFavourite(ctx context.Context, id string) error {
	if err := v.catalog.DeleteFavourite(ctx, id); err != nil {
		return v.mutationFailed("remove", err)
	}

	metrics.RecordFavouriteMutation("remove", "ok")
	v.logger.Info().Str("favouriteId", id).Msg("removed favourite")
	v.Load()
	v.notes.show(NotifySuccess, msgRemoved)
	return nil
}

func (v *ListView) mutationFailed(action string, err error) error {
	metrics.RecordFavouriteMutation(action, "error")
	v.logger.Warn().Err(err).Str("action", action).Msg("favourite mutation failed")
	if !errors.Is(err, context.Canceled) {
		v.notes.show(NotifyError, err.Error())
	}
	return err
}

// DismissNotification hides the current notification.
func (v *ListView) DismissNotification() {
	v.notes.dismiss()
}

// Model snapshots the view for rendering.
func (v *ListView) Model() ListModel {
	snap := v.loader.Snapshot()

	v.mu.Lock()
	search := v.search
	v.mu.Unlock()

	heading := "Movies"
	if v.Favourites() {
		heading = "Favourites"
	}

	m := ListModel{
		ID:           v.id,
		Kind:         KindList,
		Status:       snap.Status,
		Error:        errorText(snap.Err),
		Category:     v.Category(),
		Heading:      heading,
		Favourites:   v.Favourites(),
		Search:       search,
		Notification: v.notes.get(),
	}

	if snap.Status == viewstate.StatusLoaded {
		m.Cards = make([]Card, 0, len(snap.Payload))
		for _, movie := range snap.Payload {
			m.Cards = append(m.Cards, newCard(v.Category(), movie))
		}
		m.Empty = len(m.Cards) == 0
	}
	return m
}

// Close unmounts the view.
func (v *ListView) Close() {
	v.notes.stop()
	v.loader.Close()
}

func newCard(category string, m catalog.Movie) Card {
	return Card{
		ID:        m.ID.String(),
		Title:     TruncateTitle(m.Title),
		FullTitle: m.Title,
		Year:      m.Year,
		PosterURL: m.PosterURL,
		DetailURL: KeyForMovie(category, m).Path(),
	}
}

// TruncateTitle shortens titles longer than 23 characters and appends "...".
func TruncateTitle(title string) string {
	r := []rune(title)
	if len(r) <= maxCardTitle {
		return title
	}
	return string(r[:maxCardTitle]) + "..."
}
