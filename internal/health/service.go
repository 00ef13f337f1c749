package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventHealthUpdated is broadcast when an item changes status.
const EventHealthUpdated = "health:updated"

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// Service tracks the in-memory health state of the frontend's
// dependencies. State resets on restart.
type Service struct {
	items       map[HealthCategory]map[string]*HealthItem
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	s := &Service{
		items:  make(map[HealthCategory]map[string]*HealthItem),
		logger: logger.With().Str("component", "health").Logger(),
	}
	for _, cat := range AllCategories() {
		s.items[cat] = make(map[string]*HealthItem)
	}
	return s
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// RegisterItem adds an item with OK status. Re-registering keeps its state.
func (s *Service) RegisterItem(category HealthCategory, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[category][id]; exists {
		return
	}
	s.items[category][id] = &HealthItem{ID: id, Category: category, Name: name, Status: StatusOK}
}

func (s *Service) SetError(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusError, message)
}

func (s *Service) SetWarning(category HealthCategory, id, message string) {
	s.setStatus(category, id, StatusWarning, message)
}

// ClearStatus resets an item to OK.
func (s *Service) ClearStatus(category HealthCategory, id string) {
	s.setStatus(category, id, StatusOK, "")
}

func (s *Service) setStatus(category HealthCategory, id string, status HealthStatus, message string) {
	s.mu.Lock()
	item, exists := s.items[category][id]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().Str("category", string(category)).Str("id", id).Msg("Attempted to update status for unregistered item")
		return
	}
	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	old := item.Status
	item.Status = status
	item.Message = message
	item.Timestamp = nil
	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	}
	snapshot := *item
	b := s.broadcaster
	s.mu.Unlock()

	s.logger.Info().
		Str("category", string(category)).
		Str("id", id).
		Str("oldStatus", string(old)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if b != nil {
		if err := b.Broadcast(EventHealthUpdated, snapshot); err != nil {
			s.logger.Warn().Err(err).Msg("failed to broadcast health update")
		}
	}
}

// Get returns one item.
func (s *Service) Get(category HealthCategory, id string) (HealthItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[category][id]
	if !ok {
		return HealthItem{}, false
	}
	return *item, true
}

// Summary returns every item with per-category counts. The overall status
// is the worst item status.
func (s *Service) Summary() HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := HealthSummary{Status: StatusOK, Items: []HealthItem{}}
	for _, cat := range AllCategories() {
		cs := CategorySummary{Category: cat}
		ids := make([]string, 0, len(s.items[cat]))
		for id := range s.items[cat] {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			item := s.items[cat][id]
			switch item.Status {
			case StatusOK:
				cs.OK++
			case StatusWarning:
				cs.Warning++
				if summary.Status == StatusOK {
					summary.Status = StatusWarning
				}
			case StatusError:
				cs.Error++
				summary.Status = StatusError
			}
			summary.Items = append(summary.Items, *item)
		}
		summary.HasIssues = summary.HasIssues || cs.HasIssues()
		summary.Categories = append(summary.Categories, cs)
	}
	return summary
}
