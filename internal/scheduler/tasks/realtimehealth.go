package tasks

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/health"
	"github.com/movieontip/movieontip/internal/scheduler"
)

const realtimeHealthID = "websocket"

var errHubStopped = errors.New("websocket hub is not running")

// HubStatus reports the state of the websocket hub.
type HubStatus interface {
	Running() bool
	ClientCount() int
}

// RealtimeHealthTask records whether pages can still receive view updates.
type RealtimeHealthTask struct {
	hub    HubStatus
	health *health.Service
	logger zerolog.Logger
}

func NewRealtimeHealthTask(hub HubStatus, healthSvc *health.Service, logger zerolog.Logger) *RealtimeHealthTask {
	healthSvc.RegisterItem(health.CategoryRealtime, realtimeHealthID, "WebSocket hub")
	return &RealtimeHealthTask{
		hub:    hub,
		health: healthSvc,
		logger: logger.With().Str("task", "realtime-health").Logger(),
	}
}

// Run executes the hub check.
func (t *RealtimeHealthTask) Run(_ context.Context) error {
	if !t.hub.Running() {
		t.health.SetError(health.CategoryRealtime, realtimeHealthID, errHubStopped.Error())
		return errHubStopped
	}

	t.health.ClearStatus(health.CategoryRealtime, realtimeHealthID)
	t.logger.Debug().Int("clients", t.hub.ClientCount()).Msg("websocket hub running")
	return nil
}

// RegisterRealtimeHealthTask registers the hub check with the scheduler.
func RegisterRealtimeHealthTask(sched *scheduler.Scheduler, hub HubStatus, healthSvc *health.Service, cron string, logger zerolog.Logger) error {
	task := NewRealtimeHealthTask(hub, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "realtime-health",
		Name:        "Realtime Health Check",
		Description: "Checks that view updates can still be pushed to pages",
		Cron:        cron,
		RunOnStart:  true,
		Func:        task.Run,
	})
}
