// Package artifact persists JSON snapshots of fetched pipeline data for
// offline debugging.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot file names, one per operation
const (
	TimelineFile        = "timeline.json"
	FailedTasksFile     = "failed_tasks.json"
	TaskLogsFile        = "tasks_logs.json"
	TaskMetadataFile    = "tasks_metadata.json"
	defaultDirPerm      = 0o755
	defaultSnapshotPerm = 0o644
)

// Writer persists snapshots under a fixed directory
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir, creating it if needed
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the snapshot directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteJSON marshals obj with indentation and writes it to name inside the
// snapshot directory
func (w *Writer) WriteJSON(name string, obj any) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", name, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, defaultSnapshotPerm); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}

	return nil
}
