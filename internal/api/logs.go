package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/logger"
)

// LogsProvider provides access to log data.
type LogsProvider interface {
	GetRecentLogs() []logger.LogEntry
	GetLogFilePath() string
}

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	provider LogsProvider
}

// NewLogsHandlers creates a new logs handlers instance.
func NewLogsHandlers(provider LogsProvider) *LogsHandlers {
	return &LogsHandlers{provider: provider}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries from the ring buffer.
// ?level= keeps entries at or above a level, ?component= narrows to one
// component and ?limit= keeps only the newest entries.
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	minLevel := zerolog.TraceLevel
	if raw := c.QueryParam("level"); raw != "" {
		lvl, err := zerolog.ParseLevel(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid level")
		}
		minLevel = lvl
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	component := c.QueryParam("component")
	logs := []logger.LogEntry{}
	for _, entry := range h.provider.GetRecentLogs() {
		if lvl, err := zerolog.ParseLevel(entry.Level); err == nil && lvl < minLevel {
			continue
		}
		if component != "" && entry.Component != component {
			continue
		}
		logs = append(logs, entry)
	}

	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	return c.JSON(http.StatusOK, logs)
}

// DownloadLogFile serves the current log file for download.
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	logPath := h.provider.GetLogFilePath()
	if logPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}

	return c.Attachment(logPath, "movieontip.log")
}
