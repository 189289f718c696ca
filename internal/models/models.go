package models

import "time"

// BuildSummary is an overview of the useful facts about one pipeline build
type BuildSummary struct {
	Name        string `json:"name"`
	BuildID     int    `json:"build_id"`
	Result      string `json:"result"`
	Status      string `json:"status"`
	URL         string `json:"url"`
	Branch      string `json:"branch"`
	CommitID    string `json:"commit_id"`
	TriggeredBy string `json:"triggered_by"`
}

// RecordType classifies a timeline record
type RecordType string

const (
	RecordTypeStage RecordType = "Stage"
	RecordTypePhase RecordType = "Phase"
	RecordTypeJob   RecordType = "Job"
	RecordTypeTask  RecordType = "Task"
)

// RecordResult represents the outcome of a timeline record
type RecordResult string

const (
	ResultSucceeded           RecordResult = "succeeded"
	ResultSucceededWithIssues RecordResult = "succeededWithIssues"
	ResultFailed              RecordResult = "failed"
	ResultCanceled            RecordResult = "canceled"
	ResultSkipped             RecordResult = "skipped"
	ResultAbandoned           RecordResult = "abandoned"
	ResultUnknown             RecordResult = "unknown"
)

// RecordState represents the execution state of a timeline record
type RecordState string

const (
	StatePending    RecordState = "pending"
	StateInProgress RecordState = "inProgress"
	StateCompleted  RecordState = "completed"
)

// Timeline is the ordered record set of one build run
type Timeline struct {
	BuildID  int      `json:"build_id"`
	ChangeID int      `json:"change_id,omitempty"`
	Records  []Record `json:"records"`
}

// Record is a single stage/job/task entry in a build timeline
type Record struct {
	ID           string       `json:"id"`
	ParentID     string       `json:"parent_id,omitempty"`
	Type         RecordType   `json:"type"`
	Name         string       `json:"name"`
	Result       RecordResult `json:"result,omitempty"`
	State        RecordState  `json:"state,omitempty"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ErrorCount   int          `json:"error_count,omitempty"`
	WarningCount int          `json:"warning_count,omitempty"`
	LogID        int          `json:"log_id,omitempty"`
	Issues       []string     `json:"issues,omitempty"`
	WorkerName   string       `json:"worker_name,omitempty"`
	Attempt      int          `json:"attempt,omitempty"`
	Order        int          `json:"order,omitempty"`
}

// Failed reports whether the record ended in failure
func (r Record) Failed() bool {
	return r.Result == ResultFailed
}

// TaskLog bundles the fetched log of one failed task with its metadata
type TaskLog struct {
	TaskName  string   `json:"task_name"`
	Lines     []string `json:"lines"`
	Issues    []string `json:"issues,omitempty"`
	ParentJob string   `json:"parent_job,omitempty"`
}

// JobFailureGroup is a section of failed job names keyed by stage label
type JobFailureGroup struct {
	Stage string   `json:"stage"`
	Jobs  []string `json:"jobs"`
}

// Verdict classifies a build against a previous one
type Verdict string

const (
	VerdictBackToNormal    Verdict = "back to normal"
	VerdictRepeatedFailure Verdict = "repeated failure"
	VerdictNewFailure      Verdict = "new failure!"
	VerdictNone            Verdict = ""
)

// Comparison is the outcome of diffing two builds' failed job sets
type Comparison struct {
	BuildID          int               `json:"build_id"`
	PreviousBuildID  *int              `json:"previous_build_id,omitempty"`
	Verdict          Verdict           `json:"verdict,omitempty"`
	CurrentFailures  []JobFailureGroup `json:"current_failures,omitempty"`
	PreviousFailures []JobFailureGroup `json:"previous_failures,omitempty"`
}
