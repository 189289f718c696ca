package api

import (
	"testing"

	"github.com/buildpeek/buildpeek/internal/models"
)

func TestFilterRecords(t *testing.T) {
	records := []models.Record{
		{Name: "Build solution", Type: models.RecordTypeTask, Result: models.ResultFailed},
		{Name: "Run unit tests", Type: models.RecordTypeTask, Result: models.ResultSucceeded},
		{Name: "Linux job", Type: models.RecordTypeJob, Result: models.ResultFailed},
		{Name: "Deploy stage", Type: models.RecordTypeStage, Result: models.ResultSucceeded},
	}

	tests := []struct {
		name       string
		recordType string
		result     string
		search     string
		want       int
	}{
		{"no filters", "", "", "", 4},
		{"type task", "Task", "", "", 2},
		{"type job", "Job", "", "", 1},
		{"type case insensitive", "task", "", "", 2},
		{"result failed", "", "failed", "", 2},
		{"result succeeded", "", "succeeded", "", 2},
		{"search build", "", "", "build", 1},
		{"search job", "", "", "job", 1},
		{"type + result", "Task", "failed", "", 1},
		{"no match", "Task", "failed", "deploy", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRecords(records, tt.recordType, tt.result, tt.search)
			if len(got) != tt.want {
				t.Errorf("FilterRecords() = %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseBuildIDParam(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantID int
		wantOK bool
	}{
		{"empty", "", 0, false},
		{"valid", "4242", 4242, true},
		{"zero", "0", 0, false},
		{"negative", "-5", 0, false},
		{"not a number", "abc", 0, false},
		{"trailing garbage", "42x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseBuildIDParam(tt.value)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("parseBuildIDParam(%q) = (%d, %v), want (%d, %v)",
					tt.value, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
