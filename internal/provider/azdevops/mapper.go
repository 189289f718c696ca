package azdevops

import (
	"errors"
	"net/http"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"

	"github.com/buildpeek/buildpeek/internal/models"
	"github.com/buildpeek/buildpeek/internal/provider"
)

// mapBuildToSummary converts an SDK build into a BuildSummary
func mapBuildToSummary(b *build.Build) *models.BuildSummary {
	summary := &models.BuildSummary{
		URL: webURL(b),
	}

	if b.Id != nil {
		summary.BuildID = *b.Id
	}
	if b.Definition != nil && b.Definition.Name != nil {
		summary.Name = *b.Definition.Name
	}
	if b.Result != nil {
		summary.Result = string(*b.Result)
	}
	if b.Status != nil {
		summary.Status = string(*b.Status)
	}
	if b.SourceBranch != nil {
		summary.Branch = *b.SourceBranch
	}
	if b.SourceVersion != nil {
		summary.CommitID = *b.SourceVersion
	}
	if b.RequestedBy != nil && b.RequestedBy.DisplayName != nil {
		summary.TriggeredBy = *b.RequestedBy.DisplayName
	}

	return summary
}

// webURL extracts the browser link of a build from its _links payload.
// Returns "" when the payload is missing or malformed.
func webURL(b *build.Build) string {
	links, ok := b.Links.(map[string]interface{})
	if !ok {
		return ""
	}
	web, ok := links["web"].(map[string]interface{})
	if !ok {
		return ""
	}
	href, _ := web["href"].(string)
	return href
}

// mapTimeline converts an SDK timeline into the local model
func mapTimeline(t *build.Timeline, buildID int) *models.Timeline {
	timeline := &models.Timeline{BuildID: buildID}

	if t.ChangeId != nil {
		timeline.ChangeID = *t.ChangeId
	}

	if t.Records == nil {
		return timeline
	}

	timeline.Records = make([]models.Record, 0, len(*t.Records))
	for i := range *t.Records {
		timeline.Records = append(timeline.Records, mapRecord(&(*t.Records)[i]))
	}

	return timeline
}

// mapRecord converts one SDK timeline record
func mapRecord(r *build.TimelineRecord) models.Record {
	rec := models.Record{}

	if r.Id != nil {
		rec.ID = r.Id.String()
	}
	if r.ParentId != nil {
		rec.ParentID = r.ParentId.String()
	}
	if r.Type != nil {
		rec.Type = models.RecordType(*r.Type)
	}
	if r.Name != nil {
		rec.Name = *r.Name
	}
	if r.Result != nil {
		rec.Result = mapTaskResult(*r.Result)
	}
	if r.State != nil {
		rec.State = models.RecordState(*r.State)
	}
	if r.StartTime != nil {
		startedAt := r.StartTime.Time
		rec.StartedAt = &startedAt
	}
	if r.FinishTime != nil {
		finishedAt := r.FinishTime.Time
		rec.FinishedAt = &finishedAt
	}
	if r.ErrorCount != nil {
		rec.ErrorCount = *r.ErrorCount
	}
	if r.WarningCount != nil {
		rec.WarningCount = *r.WarningCount
	}
	if r.Log != nil && r.Log.Id != nil {
		rec.LogID = *r.Log.Id
	}
	if r.Issues != nil {
		for _, issue := range *r.Issues {
			if issue.Message != nil {
				rec.Issues = append(rec.Issues, *issue.Message)
			}
		}
	}
	if r.WorkerName != nil {
		rec.WorkerName = *r.WorkerName
	}
	if r.Attempt != nil {
		rec.Attempt = *r.Attempt
	}
	if r.Order != nil {
		rec.Order = *r.Order
	}

	return rec
}

// mapTaskResult converts an SDK task result to a RecordResult
func mapTaskResult(result build.TaskResult) models.RecordResult {
	switch result {
	case build.TaskResultValues.Succeeded:
		return models.ResultSucceeded
	case build.TaskResultValues.SucceededWithIssues:
		return models.ResultSucceededWithIssues
	case build.TaskResultValues.Failed:
		return models.ResultFailed
	case build.TaskResultValues.Canceled:
		return models.ResultCanceled
	case build.TaskResultValues.Skipped:
		return models.ResultSkipped
	case build.TaskResultValues.Abandoned:
		return models.ResultAbandoned
	default:
		return models.ResultUnknown
	}
}

// mapError translates SDK transport errors onto provider sentinels where the
// status code is unambiguous; everything else propagates as a ProviderError
func mapError(err error) error {
	var wrapped azuredevops.WrappedError
	if !errors.As(err, &wrapped) {
		return err
	}

	if wrapped.StatusCode == nil {
		return err
	}

	switch *wrapped.StatusCode {
	case http.StatusNotFound:
		return provider.ErrBuildNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return provider.ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return provider.ErrProviderUnavailable
	default:
		message := ""
		if wrapped.Message != nil {
			message = *wrapped.Message
		}
		return &provider.ProviderError{
			Code:    *wrapped.StatusCode,
			Message: message,
			Err:     err,
		}
	}
}
