package views

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/metrics"
	"github.com/movieontip/movieontip/internal/viewstate"
)

// Publisher pushes events to the browsers subscribed to a topic.
type Publisher interface {
	Publish(topic, msgType string, payload any) error
}

// EventViewUpdated is published to a view's own topic, the view id,
// whenever the view changes state. Only the page that rendered the view
// subscribes to it.
const EventViewUpdated = "view:updated"

// ViewEvent is the payload of EventViewUpdated.
type ViewEvent struct {
	ViewID string           `json:"viewId"`
	Kind   Kind             `json:"kind"`
	Status viewstate.Status `json:"status"`
}

// Options configures a Registry.
type Options struct {
	// NotificationDelay is how long a list notification stays visible.
	NotificationDelay time.Duration
	// ImageBaseURL prefixes poster file names on detail pages.
	ImageBaseURL string
}

type entry struct {
	view     View
	lastUsed time.Time
}

// Registry owns the mounted views. Unmounting a view cancels its fetches
// and drops any result that arrives afterwards.
type Registry struct {
	mu      sync.Mutex
	views   map[string]*entry
	catalog Catalog
	hub     Publisher
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRegistry creates an empty registry. hub may be nil.
func NewRegistry(cat Catalog, hub Publisher, opts Options, logger zerolog.Logger) *Registry {
	return &Registry{
		views:   make(map[string]*entry),
		catalog: cat,
		hub:     hub,
		opts:    opts,
		logger:  logger.With().Str("component", "views").Logger(),
		now:     time.Now,
	}
}

// SetPublisher sets the hub used for view events.
func (r *Registry) SetPublisher(hub Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hub = hub
}

// MountList mounts the list view of tab and starts loading it.
func (r *Registry) MountList(tab Tab) *ListView {
	v := newListView(uuid.NewString(), tab, r.catalog, r.opts.NotificationDelay, r.publisher(KindList), r.logger)
	r.add(v)
	v.Load()
	return v
}

// MountDetail mounts a detail view for key and starts loading it.
func (r *Registry) MountDetail(key DetailKey) *DetailView {
	v := newDetailView(uuid.NewString(), key, r.catalog, r.opts.ImageBaseURL, r.publisher(KindDetail), r.logger)
	r.add(v)
	v.Load()
	return v
}

// MountMenu mounts the home menu and starts loading it.
func (r *Registry) MountMenu() *MenuView {
	v := newMenuView(uuid.NewString(), r.catalog, r.publisher(KindMenu))
	r.add(v)
	v.Load()
	return v
}

func (r *Registry) add(v View) {
	r.mu.Lock()
	r.views[v.ID()] = &entry{view: v, lastUsed: r.now()}
	n := len(r.views)
	r.mu.Unlock()

	metrics.ViewsActive.Set(float64(n))
	r.logger.Debug().Str("view", v.ID()).Str("kind", string(v.Kind())).Msg("view mounted")
}

// Get returns a mounted view and marks it as used.
func (r *Registry) Get(id string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	e.lastUsed = r.now()
	return e.view, nil
}

// Has reports whether a view is mounted without marking it as used.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.views[id]
	return ok
}

// List returns a mounted list view.
func (r *Registry) List(id string) (*ListView, error) {
	v, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	lv, ok := v.(*ListView)
	if !ok {
		return nil, ErrWrongViewKind
	}
	return lv, nil
}

// Close unmounts a view. It reports whether the view was mounted.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.views[id]
	if ok {
		delete(r.views, id)
	}
	n := len(r.views)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.view.Close()
	metrics.ViewsActive.Set(float64(n))
	r.logger.Debug().Str("view", id).Msg("view unmounted")
	return true
}

// Sweep unmounts views unused for longer than maxIdle and returns how many
// were removed.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []View
	for id, e := range r.views {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e.view)
			delete(r.views, id)
		}
	}
	n := len(r.views)
	r.mu.Unlock()

	for _, v := range stale {
		v.Close()
	}
	metrics.ViewsActive.Set(float64(n))

	if len(stale) > 0 {
		r.logger.Info().Int("removed", len(stale)).Int("active", n).Msg("swept idle views")
	}
	return len(stale)
}

// CloseAll unmounts every view.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range views {
		e.view.Close()
	}
	metrics.ViewsActive.Set(0)
}

// Count returns the number of mounted views.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) publisher(kind Kind) publishFunc {
	return func(id string, status viewstate.Status) {
		r.mu.Lock()
		hub := r.hub
		r.mu.Unlock()
		if hub == nil {
			return
		}
		if err := hub.Publish(id, EventViewUpdated, ViewEvent{ViewID: id, Kind: kind, Status: status}); err != nil {
			r.logger.Warn().Err(err).Str("view", id).Msg("failed to publish view update")
		}
	}
}
