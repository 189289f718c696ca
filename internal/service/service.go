package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildpeek/buildpeek/internal/artifact"
	"github.com/buildpeek/buildpeek/internal/models"
	"github.com/buildpeek/buildpeek/internal/provider"
	"github.com/buildpeek/buildpeek/internal/provider/azdevops"
	"github.com/buildpeek/buildpeek/pkg/logger"
)

var (
	// ErrBuildNotFound indicates the requested build doesn't exist
	ErrBuildNotFound = errors.New("build not found")
	// ErrTimelineNotFound indicates the build has no timeline
	ErrTimelineNotFound = errors.New("timeline not found")
)

// Service coordinates business logic between the API and provider layers
type Service struct {
	provider  provider.Provider
	snapshots *artifact.Writer // nil when snapshot persistence is disabled
	logger    *logger.Logger
}

// NewService creates a new service instance. snapshots may be nil.
func NewService(prov provider.Provider, snapshots *artifact.Writer, log *logger.Logger) *Service {
	return &Service{
		provider:  prov,
		snapshots: snapshots,
		logger:    log,
	}
}

// getLogger retrieves the request-scoped logger or falls back to the service's
func (s *Service) getLogger(ctx context.Context) *logger.Logger {
	if ctxLogger := logger.FromContext(ctx); ctxLogger != nil {
		return ctxLogger
	}
	return s.logger
}

// Summary returns an overview of the configured build
func (s *Service) Summary(ctx context.Context) (*models.BuildSummary, error) {
	logger := s.getLogger(ctx)

	summary, err := s.provider.Summary(ctx)
	if err != nil {
		logger.Error("service: failed to get build summary", "error", err)
		return nil, translateError(err)
	}

	logger.Debug("service: build summary retrieved",
		"build_id", summary.BuildID,
		"result", summary.Result)
	return summary, nil
}

// Timeline retrieves the record set of a build run. A zero buildID means the
// configured build.
func (s *Service) Timeline(ctx context.Context, buildID int) (*models.Timeline, error) {
	logger := s.getLogger(ctx)

	logger.Debug("service: getting timeline", "build_id", buildID)

	timeline, err := s.provider.Timeline(ctx, buildID)
	if err != nil {
		logger.Error("service: failed to get timeline", "build_id", buildID, "error", err)
		return nil, translateError(err)
	}

	s.snapshot(ctx, artifact.TimelineFile, timeline)
	return timeline, nil
}

// FailedTasks returns the failed task records of a build
func (s *Service) FailedTasks(ctx context.Context, buildID int) ([]models.Record, error) {
	logger := s.getLogger(ctx)

	timeline, err := s.Timeline(ctx, buildID)
	if err != nil {
		return nil, err
	}

	failed := s.provider.FailedTasks(ctx, timeline)
	logger.Debug("service: failed tasks retrieved",
		"build_id", timeline.BuildID,
		"count", len(failed))

	s.snapshot(ctx, artifact.FailedTasksFile, failed)
	return failed, nil
}

// FailedTaskLogs fetches log lines and metadata for every failed task of a
// build
func (s *Service) FailedTaskLogs(ctx context.Context, buildID int) ([]models.TaskLog, error) {
	logger := s.getLogger(ctx)

	timeline, err := s.Timeline(ctx, buildID)
	if err != nil {
		return nil, err
	}

	logs, err := s.provider.FailedTaskLogs(ctx, timeline)
	if err != nil {
		logger.Error("service: failed to get task logs", "build_id", timeline.BuildID, "error", err)
		return nil, translateError(err)
	}

	logger.Debug("service: task logs retrieved",
		"build_id", timeline.BuildID,
		"count", len(logs))

	s.snapshotTaskLogs(ctx, logs)
	return logs, nil
}

// FailedJobs groups the failed job records of a build by stage label
func (s *Service) FailedJobs(ctx context.Context, buildID int) ([]models.JobFailureGroup, error) {
	logger := s.getLogger(ctx)

	logger.Debug("service: getting failed jobs", "build_id", buildID)

	groups, err := s.provider.FailedJobs(ctx, buildID)
	if err != nil {
		logger.Error("service: failed to get failed jobs", "build_id", buildID, "error", err)
		return nil, translateError(err)
	}

	return groups, nil
}

// PreviousBuild resolves the build preceding the configured one. Returns nil
// when the configured build is the oldest or the only one.
func (s *Service) PreviousBuild(ctx context.Context) (*int, error) {
	logger := s.getLogger(ctx)

	previous, err := s.provider.PreviousBuild(ctx)
	if err != nil {
		logger.Error("service: failed to resolve previous build", "error", err)
		return nil, translateError(err)
	}

	if previous == nil {
		logger.Info("service: no previous build")
	} else {
		logger.Info("service: previous build resolved", "previous_build_id", *previous)
	}
	return previous, nil
}

// Compare classifies the configured build against a previous one. When
// previousBuildID is nil the previous build is resolved automatically.
func (s *Service) Compare(ctx context.Context, previousBuildID *int) (*models.Comparison, error) {
	logger := s.getLogger(ctx)

	if previousBuildID == nil {
		resolved, err := s.PreviousBuild(ctx)
		if err != nil {
			return nil, err
		}
		previousBuildID = resolved
	}

	comparison, err := s.provider.Compare(ctx, previousBuildID, 0)
	if err != nil {
		logger.Error("service: comparison failed", "error", err)
		return nil, translateError(err)
	}

	logger.Info("service: builds compared",
		"build_id", comparison.BuildID,
		"verdict", comparison.Verdict)
	return comparison, nil
}

// HealthCheck performs health checks on the service and provider
func (s *Service) HealthCheck(ctx context.Context) map[string]interface{} {
	logger := s.getLogger(ctx)

	health := map[string]interface{}{
		"status":  "healthy",
		"service": "buildpeek-gateway",
		"checks":  make(map[string]interface{}),
	}
	checks := health["checks"].(map[string]interface{})

	adapter, ok := s.provider.(*azdevops.Adapter)
	if !ok {
		checks["provider"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  "provider is not an azure devops adapter",
		}
		health["status"] = "unhealthy"
		return health
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := adapter.HealthCheck(healthCtx); err != nil {
		logger.Warn("provider health check failed", "error", err)
		checks["provider"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		health["status"] = "degraded"
	} else {
		checks["provider"] = map[string]interface{}{
			"status":   "healthy",
			"provider": "azdevops",
			"build_id": adapter.BuildID(),
		}
	}

	logger.Debug("health check completed", "status", health["status"])
	return health
}

// snapshot persists one JSON artifact when snapshots are enabled. Snapshot
// failures are logged and swallowed: they must not break the read path.
func (s *Service) snapshot(ctx context.Context, name string, obj any) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.WriteJSON(name, obj); err != nil {
		s.getLogger(ctx).Warn("service: failed to write snapshot",
			"file", name,
			"error", err)
	}
}

// snapshotTaskLogs persists task logs in the two-file layout: one file with
// the raw lines per task, one with the per-task metadata
func (s *Service) snapshotTaskLogs(ctx context.Context, logs []models.TaskLog) {
	if s.snapshots == nil {
		return
	}

	lines := make(map[string][]string, len(logs))
	metadata := make(map[string]map[string]any, len(logs))
	for _, l := range logs {
		lines[l.TaskName] = l.Lines
		metadata[l.TaskName] = map[string]any{
			"issues": l.Issues,
			"parent": l.ParentJob,
		}
	}

	s.snapshot(ctx, artifact.TaskLogsFile, lines)
	s.snapshot(ctx, artifact.TaskMetadataFile, metadata)
}

// translateError maps provider sentinels onto service-level errors
func translateError(err error) error {
	switch {
	case errors.Is(err, provider.ErrBuildNotFound):
		return ErrBuildNotFound
	case errors.Is(err, provider.ErrTimelineNotFound):
		return ErrTimelineNotFound
	default:
		return fmt.Errorf("provider: %w", err)
	}
}
