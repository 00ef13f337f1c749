package logger

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

const defaultBufferSize = 500

// Broadcaster is the interface for broadcasting messages.
type Broadcaster interface {
	Broadcast(msgType string, payload any) error
}

// LogEntry represents a parsed log entry for streaming.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBroadcaster is an io.Writer fed with zerolog JSON lines. Entries at
// or above minLevel are buffered and, when a hub is attached, streamed.
type LogBroadcaster struct {
	mu       sync.RWMutex
	hub      Broadcaster
	buffer   *RingBuffer[LogEntry]
	minLevel zerolog.Level
}

// NewLogBroadcaster creates a new log broadcaster. hub may be nil.
func NewLogBroadcaster(hub Broadcaster, bufferSize int) *LogBroadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &LogBroadcaster{
		hub:      hub,
		buffer:   NewRingBuffer[LogEntry](bufferSize),
		minLevel: zerolog.InfoLevel,
	}
}

// SetHub sets the broadcaster hub for sending messages.
func (b *LogBroadcaster) SetHub(hub Broadcaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hub = hub
}

// Write implements io.Writer.
func (b *LogBroadcaster) Write(p []byte) (int, error) {
	entry, ok := parseLogEntry(p)
	if !ok {
		return len(p), nil
	}

	if lvl, err := zerolog.ParseLevel(entry.Level); err == nil && lvl < b.minLevel {
		return len(p), nil
	}

	b.buffer.Push(entry)

	b.mu.RLock()
	hub := b.hub
	b.mu.RUnlock()

	if hub != nil {
		_ = hub.Broadcast("logs:entry", entry)
	}

	return len(p), nil
}

// GetRecentLogs returns all buffered log entries.
func (b *LogBroadcaster) GetRecentLogs() []LogEntry {
	return b.buffer.GetAll()
}

// parseLogEntry splits the well-known zerolog keys out of a JSON line.
func parseLogEntry(data []byte) (LogEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, false
	}

	take := func(key string) string {
		s, _ := raw[key].(string)
		delete(raw, key)
		return s
	}

	entry := LogEntry{
		Timestamp: take(zerolog.TimestampFieldName),
		Level:     take(zerolog.LevelFieldName),
		Component: take("component"),
		Message:   take(zerolog.MessageFieldName),
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}
