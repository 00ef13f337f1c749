package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/health"
	"github.com/movieontip/movieontip/internal/metrics"
	"github.com/movieontip/movieontip/internal/scheduler"
)

const backendHealthID = "catalog"

// Pinger checks the catalog backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendHealthTask probes the catalog backend and records the result in
// the health service.
type BackendHealthTask struct {
	backend Pinger
	health  *health.Service
	logger  zerolog.Logger
}

func NewBackendHealthTask(backend Pinger, healthSvc *health.Service, logger zerolog.Logger) *BackendHealthTask {
	healthSvc.RegisterItem(health.CategoryBackend, backendHealthID, "Catalog API")
	return &BackendHealthTask{
		backend: backend,
		health:  healthSvc,
		logger:  logger.With().Str("task", "backend-health").Logger(),
	}
}

// Run executes the backend health check.
func (t *BackendHealthTask) Run(ctx context.Context) error {
	if err := t.backend.Ping(ctx); err != nil {
		t.health.SetError(health.CategoryBackend, backendHealthID, err.Error())
		metrics.SetBackendUp(false)
		return err
	}

	t.health.ClearStatus(health.CategoryBackend, backendHealthID)
	metrics.SetBackendUp(true)
	return nil
}

// RegisterBackendHealthTask registers the backend health check with the scheduler.
func RegisterBackendHealthTask(sched *scheduler.Scheduler, backend Pinger, healthSvc *health.Service, cron string, logger zerolog.Logger) error {
	task := NewBackendHealthTask(backend, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "backend-health",
		Name:        "Backend Health Check",
		Description: "Checks that the catalog backend answers",
		Cron:        cron,
		RunOnStart:  true,
		Func:        task.Run,
	})
}
