package provider

import (
	"context"

	"github.com/buildpeek/buildpeek/internal/models"
)

// Provider abstracts read-only access to a hosted CI backend
type Provider interface {
	// Summary returns an overview of the configured build
	Summary(ctx context.Context) (*models.BuildSummary, error)

	// Timeline retrieves the record set of a build run
	Timeline(ctx context.Context, buildID int) (*models.Timeline, error)

	// FailedTasks returns the task records of a timeline that ended in failure
	FailedTasks(ctx context.Context, timeline *models.Timeline) []models.Record

	// FailedTaskLogs fetches log lines and metadata for every failed task
	FailedTaskLogs(ctx context.Context, timeline *models.Timeline) ([]models.TaskLog, error)

	// FailedJobs groups the failed job records of a build by stage label
	FailedJobs(ctx context.Context, buildID int) ([]models.JobFailureGroup, error)

	// PreviousBuild resolves the build preceding the configured one on the
	// same definition and branch. Returns nil when there is none.
	PreviousBuild(ctx context.Context) (*int, error)

	// Compare diffs the failed job sets of two builds into a verdict
	Compare(ctx context.Context, previousBuildID *int, buildID int) (*models.Comparison, error)
}
