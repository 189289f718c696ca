package azdevops

import (
	"context"
	"fmt"
	"sort"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"

	"github.com/buildpeek/buildpeek/internal/models"
	"github.com/buildpeek/buildpeek/internal/provider"
	"github.com/buildpeek/buildpeek/pkg/logger"
)

// jobStageLabel is the section key failed jobs are grouped under
const jobStageLabel = "JobStageErrors"

// Adapter implements the Provider interface on top of the Azure DevOps SDK
type Adapter struct {
	api     buildAPI
	config  *Config
	logger  *logger.Logger
	current *build.Build
	summary *models.BuildSummary
}

// NewAdapter dials the organization and resolves the configured build.
// The connection parameters are fixed for the adapter's lifetime.
func NewAdapter(ctx context.Context, cfg *Config, log *logger.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	api, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return newAdapter(ctx, api, cfg, log)
}

// newAdapter wires an adapter over an existing client. Split out so tests can
// inject a fake build API.
func newAdapter(ctx context.Context, api buildAPI, cfg *Config, log *logger.Logger) (*Adapter, error) {
	reqCtx, cancel := withTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	current, err := api.GetBuild(reqCtx, build.GetBuildArgs{
		Project: &cfg.Project,
		BuildId: &cfg.BuildID,
	})
	if err != nil {
		log.Error("provider: failed to resolve configured build",
			"build_id", cfg.BuildID,
			"error", err)
		return nil, fmt.Errorf("get build %d: %w", cfg.BuildID, mapError(err))
	}

	log.Info("provider: connected to azure devops",
		"organization", cfg.OrganizationURL,
		"project", cfg.Project,
		"build_id", cfg.BuildID)

	return &Adapter{
		api:     api,
		config:  cfg,
		logger:  log,
		current: current,
		summary: mapBuildToSummary(current),
	}, nil
}

// getLogger retrieves the request-scoped logger or falls back to the adapter's
func (a *Adapter) getLogger(ctx context.Context) *logger.Logger {
	if ctxLogger := logger.FromContext(ctx); ctxLogger != nil {
		return ctxLogger
	}
	return a.logger
}

// BuildID returns the configured build id
func (a *Adapter) BuildID() int {
	return a.config.BuildID
}

// DefinitionName returns the name of the configured build's pipeline definition
func (a *Adapter) DefinitionName() string {
	return a.summary.Name
}

// Result returns the configured build's outcome
func (a *Adapter) Result() string {
	return a.summary.Result
}

// Status returns the configured build's execution status
func (a *Adapter) Status() string {
	return a.summary.Status
}

// URL returns the browser link of the configured build, or "" when the
// provider sent no usable link
func (a *Adapter) URL() string {
	return a.summary.URL
}

// Branch returns the source branch of the configured build
func (a *Adapter) Branch() string {
	return a.summary.Branch
}

// CommitID returns the source version the configured build ran against
func (a *Adapter) CommitID() string {
	return a.summary.CommitID
}

// TriggeredBy returns the display name of whoever requested the build
func (a *Adapter) TriggeredBy() string {
	return a.summary.TriggeredBy
}

// Summary implements Provider.Summary
func (a *Adapter) Summary(ctx context.Context) (*models.BuildSummary, error) {
	return a.summary, nil
}

// Timeline implements Provider.Timeline. A zero buildID means the configured
// build.
func (a *Adapter) Timeline(ctx context.Context, buildID int) (*models.Timeline, error) {
	logger := a.getLogger(ctx)

	if buildID == 0 {
		buildID = a.config.BuildID
	}

	logger.Info("provider: getting timeline", "build_id", buildID)

	reqCtx, cancel := withTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	timeline, err := a.api.GetBuildTimeline(reqCtx, build.GetBuildTimelineArgs{
		Project: &a.config.Project,
		BuildId: &buildID,
	})
	if err != nil {
		logger.Error("provider: failed to get timeline",
			"build_id", buildID,
			"error", err)
		return nil, fmt.Errorf("get timeline for build %d: %w", buildID, mapError(err))
	}
	if timeline == nil {
		logger.Error("provider: timeline not found", "build_id", buildID)
		return nil, provider.ErrTimelineNotFound
	}

	return mapTimeline(timeline, buildID), nil
}

// FailedTasks implements Provider.FailedTasks
func (a *Adapter) FailedTasks(ctx context.Context, timeline *models.Timeline) []models.Record {
	logger := a.getLogger(ctx)

	logger.Debug("provider: extracting failed tasks", "build_id", timeline.BuildID)

	failed := make([]models.Record, 0)
	for _, record := range timeline.Records {
		if record.Failed() && record.Type == models.RecordTypeTask {
			failed = append(failed, record)
		}
	}

	logger.Debug("provider: failed tasks extracted",
		"build_id", timeline.BuildID,
		"count", len(failed))
	return failed
}

// FailedTaskLogs implements Provider.FailedTaskLogs. For every failed task it
// fetches the full log by log id and resolves the parent job name from the
// timeline. Tasks without a log reference keep their issue metadata only.
func (a *Adapter) FailedTaskLogs(ctx context.Context, timeline *models.Timeline) ([]models.TaskLog, error) {
	logger := a.getLogger(ctx)

	failed := a.FailedTasks(ctx, timeline)
	logs := make([]models.TaskLog, 0, len(failed))

	for _, task := range failed {
		taskLog := models.TaskLog{
			TaskName:  task.Name,
			Issues:    task.Issues,
			ParentJob: parentJobName(timeline, task),
		}

		if task.LogID > 0 {
			logger.Debug("provider: fetching task log",
				"task", task.Name,
				"log_id", task.LogID)

			reqCtx, cancel := withTimeout(ctx, a.config.RequestTimeout)
			lines, err := a.api.GetBuildLogLines(reqCtx, build.GetBuildLogLinesArgs{
				Project: &a.config.Project,
				BuildId: &timeline.BuildID,
				LogId:   &task.LogID,
			})
			cancel()
			if err != nil {
				logger.Error("provider: failed to fetch task log",
					"task", task.Name,
					"log_id", task.LogID,
					"error", err)
				return nil, fmt.Errorf("get log %d for task %q: %w", task.LogID, task.Name, mapError(err))
			}
			if lines != nil {
				taskLog.Lines = *lines
			}
		}

		logs = append(logs, taskLog)
	}

	logger.Debug("provider: task logs extracted", "count", len(logs))
	return logs, nil
}

// parentJobName finds the job record a task belongs to
func parentJobName(timeline *models.Timeline, task models.Record) string {
	for _, record := range timeline.Records {
		if record.Type == models.RecordTypeJob && record.ID == task.ParentID {
			return record.Name
		}
	}
	return ""
}

// FailedJobs implements Provider.FailedJobs. Failed job records are grouped
// into one section per stage label with deduplicated, sorted job names.
func (a *Adapter) FailedJobs(ctx context.Context, buildID int) ([]models.JobFailureGroup, error) {
	logger := a.getLogger(ctx)

	timeline, err := a.Timeline(ctx, buildID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var jobs []string
	for _, record := range timeline.Records {
		if record.Failed() && record.Type == models.RecordTypeJob && !seen[record.Name] {
			seen[record.Name] = true
			jobs = append(jobs, record.Name)
		}
	}

	if len(jobs) == 0 {
		logger.Debug("provider: no failed jobs", "build_id", timeline.BuildID)
		return []models.JobFailureGroup{}, nil
	}

	sort.Strings(jobs)
	logger.Info("provider: failed jobs extracted",
		"build_id", timeline.BuildID,
		"count", len(jobs))

	return []models.JobFailureGroup{{Stage: jobStageLabel, Jobs: jobs}}, nil
}

// PreviousBuild implements Provider.PreviousBuild. Builds of the same
// definition and source branch are listed newest first; the result is the one
// directly after the configured build, or nil when it is the oldest or absent
// from the listing.
func (a *Adapter) PreviousBuild(ctx context.Context) (*int, error) {
	logger := a.getLogger(ctx)

	if a.current.Definition == nil || a.current.Definition.Id == nil {
		return nil, fmt.Errorf("build %d has no definition reference", a.config.BuildID)
	}

	definitions := []int{*a.current.Definition.Id}
	queryOrder := build.BuildQueryOrderValues.StartTimeDescending

	args := build.GetBuildsArgs{
		Project:     &a.config.Project,
		Definitions: &definitions,
		QueryOrder:  &queryOrder,
	}
	if a.current.SourceBranch != nil {
		args.BranchName = a.current.SourceBranch
	}

	reqCtx, cancel := withTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	builds, err := a.api.GetBuilds(reqCtx, args)
	if err != nil {
		logger.Error("provider: failed to list builds",
			"definition_id", definitions[0],
			"error", err)
		return nil, fmt.Errorf("list builds for definition %d: %w", definitions[0], mapError(err))
	}

	var ids []int
	for _, past := range builds.Value {
		if past.Id != nil {
			ids = append(ids, *past.Id)
		}
	}
	logger.Info("provider: listed builds", "build_ids", ids)

	for i, id := range ids {
		if id == a.config.BuildID && i+1 < len(ids) {
			previous := ids[i+1]
			return &previous, nil
		}
	}

	return nil, nil
}

// Compare implements Provider.Compare. A zero buildID means the configured
// build; a nil previousBuildID is treated as a clean previous run.
func (a *Adapter) Compare(ctx context.Context, previousBuildID *int, buildID int) (*models.Comparison, error) {
	logger := a.getLogger(ctx)

	if buildID == 0 {
		buildID = a.config.BuildID
	}

	logger.Info("provider: comparing builds",
		"previous_build_id", previousBuildID,
		"build_id", buildID)

	current, err := a.FailedJobs(ctx, buildID)
	if err != nil {
		return nil, err
	}

	var previous []models.JobFailureGroup
	if previousBuildID != nil {
		previous, err = a.FailedJobs(ctx, *previousBuildID)
		if err != nil {
			return nil, err
		}
	}

	comparison := &models.Comparison{
		BuildID:          buildID,
		PreviousBuildID:  previousBuildID,
		Verdict:          classify(current, previous),
		CurrentFailures:  current,
		PreviousFailures: previous,
	}

	logger.Info("provider: comparison complete",
		"build_id", buildID,
		"verdict", comparison.Verdict)
	return comparison, nil
}

// classify derives a verdict from the current and previous failure sets
func classify(current, previous []models.JobFailureGroup) models.Verdict {
	switch {
	case len(current) == 0 && len(previous) > 0:
		return models.VerdictBackToNormal
	case len(current) > 0 && len(previous) == 0:
		return models.VerdictNewFailure
	case len(current) > 0 && len(previous) > 0:
		if failureGroupsEqual(current, previous) {
			return models.VerdictRepeatedFailure
		}
		return models.VerdictNewFailure
	default:
		return models.VerdictNone
	}
}

// failureGroupsEqual reports whether two failure sets name the same stages and
// jobs. Both sides are already deduplicated and sorted.
func failureGroupsEqual(a, b []models.JobFailureGroup) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Stage != b[i].Stage || len(a[i].Jobs) != len(b[i].Jobs) {
			return false
		}
		for j := range a[i].Jobs {
			if a[i].Jobs[j] != b[i].Jobs[j] {
				return false
			}
		}
	}
	return true
}

// HealthCheck verifies the configured build is still reachable
func (a *Adapter) HealthCheck(ctx context.Context) error {
	reqCtx, cancel := withTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	_, err := a.api.GetBuild(reqCtx, build.GetBuildArgs{
		Project: &a.config.Project,
		BuildId: &a.config.BuildID,
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}
