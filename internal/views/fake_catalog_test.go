package views

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/movieontip/movieontip/internal/catalog"
)

// fakeCatalog is an in-memory Catalog keyed by category.
type fakeCatalog struct {
	mu      sync.Mutex
	data    map[string][]catalog.Movie
	nextID  int
	failErr error
	// searchGate, when set, blocks Search calls for the given text until closed.
	searchGate map[string]chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{data: make(map[string][]catalog.Movie), searchGate: make(map[string]chan struct{})}
}

func (f *fakeCatalog) seed(category string, movies ...catalog.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[category] = append(f.data[category], movies...)
}

func (f *fakeCatalog) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

func (f *fakeCatalog) count(category string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data[category])
}

func (f *fakeCatalog) List(ctx context.Context, category string) ([]catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	return append([]catalog.Movie{}, f.data[category]...), nil
}

func (f *fakeCatalog) Get(ctx context.Context, category, id string) (*catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, m := range f.data[category] {
		if m.ID.String() == id {
			return &m, nil
		}
	}
	return nil, catalog.ErrMovieNotFound
}

func (f *fakeCatalog) FindByTitleYear(ctx context.Context, category, title, year string) ([]catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	var out []catalog.Movie
	for _, m := range f.data[category] {
		if m.Title == title && m.Year == year {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Search(ctx context.Context, category, text string) ([]catalog.Movie, error) {
	f.mu.Lock()
	gate := f.searchGate[text]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := []catalog.Movie{}
	for _, m := range f.data[category] {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(text)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCatalog) AddFavourite(ctx context.Context, movie catalog.Movie) (*catalog.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.nextID++
	movie.ID = catalog.FlexString(fmt.Sprintf("fav-%d", f.nextID))
	f.data[catalog.FavouritesCategory] = append(f.data[catalog.FavouritesCategory], movie)
	return &movie, nil
}

func (f *fakeCatalog) DeleteFavourite(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	favs := f.data[catalog.FavouritesCategory]
	for i, m := range favs {
		if m.ID.String() == id {
			f.data[catalog.FavouritesCategory] = append(favs[:i:i], favs[i+1:]...)
			return nil
		}
	}
	return catalog.ErrMovieNotFound
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	names := make([]string, 0, len(f.data))
	for name := range f.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type recordingHub struct {
	mu     sync.Mutex
	events []ViewEvent
}

func (h *recordingHub) Publish(topic, msgType string, payload any) error {
	if ev, ok := payload.(ViewEvent); ok && msgType == EventViewUpdated && topic == ev.ViewID {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	}
	return nil
}

func (h *recordingHub) statuses(viewID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.events {
		if ev.ViewID == viewID {
			out = append(out, string(ev.Status))
		}
	}
	return out
}
