package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of an item.
type HealthStatus string

const (
	StatusOK      HealthStatus = "ok"
	StatusWarning HealthStatus = "warning"
	StatusError   HealthStatus = "error"
)

// HealthCategory groups related health items.
type HealthCategory string

const (
	CategoryBackend  HealthCategory = "backend"
	CategoryRealtime HealthCategory = "realtime"
)

// AllCategories returns all health categories in display order.
func AllCategories() []HealthCategory {
	return []HealthCategory{CategoryBackend, CategoryRealtime}
}

// HealthItem represents a single health-tracked item.
type HealthItem struct {
	ID        string         `json:"id"`
	Category  HealthCategory `json:"category"`
	Name      string         `json:"name"`
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
}

// MarshalJSON omits message and timestamp for OK items.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type Alias HealthItem
	alias := Alias(h)
	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}
	return json.Marshal(alias)
}

// CategorySummary provides counts for a health category.
type CategorySummary struct {
	Category HealthCategory `json:"category"`
	OK       int            `json:"ok"`
	Warning  int            `json:"warning"`
	Error    int            `json:"error"`
}

func (c CategorySummary) HasIssues() bool {
	return c.Warning > 0 || c.Error > 0
}

// HealthSummary is the body of GET /api/v1/health.
type HealthSummary struct {
	Status     HealthStatus      `json:"status"`
	Categories []CategorySummary `json:"categories"`
	Items      []HealthItem      `json:"items"`
	HasIssues  bool              `json:"hasIssues"`
}
