package azdevops

import (
	"errors"
	"testing"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"

	"github.com/buildpeek/buildpeek/internal/models"
	"github.com/buildpeek/buildpeek/internal/provider"
)

func TestMapTaskResult(t *testing.T) {
	tests := []struct {
		in   build.TaskResult
		want models.RecordResult
	}{
		{build.TaskResultValues.Succeeded, models.ResultSucceeded},
		{build.TaskResultValues.SucceededWithIssues, models.ResultSucceededWithIssues},
		{build.TaskResultValues.Failed, models.ResultFailed},
		{build.TaskResultValues.Canceled, models.ResultCanceled},
		{build.TaskResultValues.Skipped, models.ResultSkipped},
		{build.TaskResultValues.Abandoned, models.ResultAbandoned},
		{build.TaskResult("somethingElse"), models.ResultUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := mapTaskResult(tt.in); got != tt.want {
				t.Errorf("mapTaskResult(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWebURL(t *testing.T) {
	tests := []struct {
		name  string
		links interface{}
		want  string
	}{
		{
			"well formed",
			map[string]interface{}{
				"web": map[string]interface{}{"href": "https://dev.azure.com/org/p/_build/results?buildId=1"},
			},
			"https://dev.azure.com/org/p/_build/results?buildId=1",
		},
		{"nil links", nil, ""},
		{"wrong outer type", "not a map", ""},
		{"missing web entry", map[string]interface{}{"self": map[string]interface{}{}}, ""},
		{"href not a string", map[string]interface{}{"web": map[string]interface{}{"href": 42}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &build.Build{Links: tt.links}
			if got := webURL(b); got != tt.want {
				t.Errorf("webURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapRecord(t *testing.T) {
	taskType := "Task"
	failed := build.TaskResultValues.Failed
	state := build.TimelineRecordStateValues.Completed
	started := azuredevops.Time{Time: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)}
	finished := azuredevops.Time{Time: time.Date(2026, 8, 20, 10, 5, 0, 0, time.UTC)}

	in := build.TimelineRecord{
		Id:           uuidPtr(taskID),
		ParentId:     uuidPtr(jobID),
		Type:         &taskType,
		Name:         strPtr("Compile"),
		Result:       &failed,
		State:        &state,
		StartTime:    &started,
		FinishTime:   &finished,
		ErrorCount:   intPtr(2),
		WarningCount: intPtr(1),
		Log:          &build.BuildLogReference{Id: intPtr(33)},
		Issues: &[]build.Issue{
			{Message: strPtr("compile error")},
			{}, // issue without a message is dropped
		},
		WorkerName: strPtr("agent-7"),
		Attempt:    intPtr(1),
		Order:      intPtr(4),
	}

	got := mapRecord(&in)

	if got.ID != taskID.String() || got.ParentID != jobID.String() {
		t.Errorf("ID/ParentID = %q/%q", got.ID, got.ParentID)
	}
	if got.Type != models.RecordTypeTask {
		t.Errorf("Type = %q, want Task", got.Type)
	}
	if got.Result != models.ResultFailed {
		t.Errorf("Result = %q, want failed", got.Result)
	}
	if got.State != models.StateCompleted {
		t.Errorf("State = %q, want completed", got.State)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(started.Time) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started.Time)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished.Time) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished.Time)
	}
	if got.ErrorCount != 2 || got.WarningCount != 1 {
		t.Errorf("ErrorCount/WarningCount = %d/%d, want 2/1", got.ErrorCount, got.WarningCount)
	}
	if got.LogID != 33 {
		t.Errorf("LogID = %d, want 33", got.LogID)
	}
	if len(got.Issues) != 1 || got.Issues[0] != "compile error" {
		t.Errorf("Issues = %v, want [compile error]", got.Issues)
	}
	if got.WorkerName != "agent-7" || got.Attempt != 1 || got.Order != 4 {
		t.Errorf("WorkerName/Attempt/Order = %q/%d/%d", got.WorkerName, got.Attempt, got.Order)
	}

	if !got.Failed() {
		t.Error("Failed() = false, want true for a failed record")
	}
}

func TestMapRecord_Sparse(t *testing.T) {
	got := mapRecord(&build.TimelineRecord{})

	if got.ID != "" || got.Name != "" || got.Result != "" {
		t.Errorf("sparse record mapped to %+v, want zero values", got)
	}
	if got.StartedAt != nil || got.FinishedAt != nil {
		t.Error("timestamps should stay nil for a sparse record")
	}
	if got.Failed() {
		t.Error("Failed() = true for a record without a result")
	}
}

func TestMapError(t *testing.T) {
	status := func(code int) error {
		msg := "upstream said no"
		return azuredevops.WrappedError{StatusCode: &code, Message: &msg}
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", status(404), provider.ErrBuildNotFound},
		{"unauthorized", status(401), provider.ErrUnauthorized},
		{"forbidden", status(403), provider.ErrUnauthorized},
		{"bad gateway", status(502), provider.ErrProviderUnavailable},
		{"service unavailable", status(503), provider.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapError() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("other status becomes a provider error", func(t *testing.T) {
		got := mapError(status(429))

		var perr *provider.ProviderError
		if !errors.As(got, &perr) {
			t.Fatalf("mapError() = %T, want *provider.ProviderError", got)
		}
		if perr.Code != 429 {
			t.Errorf("Code = %d, want 429", perr.Code)
		}
		if perr.Message != "upstream said no" {
			t.Errorf("Message = %q", perr.Message)
		}
	})

	t.Run("plain error passes through", func(t *testing.T) {
		plain := errors.New("dial tcp: timeout")
		if got := mapError(plain); got != plain {
			t.Errorf("mapError() = %v, want the original error", got)
		}
	})

	t.Run("wrapped error without status passes through", func(t *testing.T) {
		err := azuredevops.WrappedError{}
		if got := mapError(err); !errors.Is(got, err) {
			t.Errorf("mapError() = %v, want the original error", got)
		}
	})
}
