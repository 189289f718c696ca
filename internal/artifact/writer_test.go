package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWriter_EmptyDir(t *testing.T) {
	if _, err := NewWriter(""); err == nil {
		t.Error("NewWriter(\"\") error = nil, want an error")
	}
}

func TestNewWriter_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if w.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", w.Dir(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat %s: %v", dir, err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	obj := map[string]any{"build_id": 4242, "result": "failed"}
	if err := w.WriteJSON(TimelineFile, obj); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, TimelineFile))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got["result"] != "failed" {
		t.Errorf("result = %v, want failed", got["result"])
	}
}

func TestWriteJSON_UnmarshalableValue(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if err := w.WriteJSON("bad.json", make(chan int)); err == nil {
		t.Error("WriteJSON(chan) error = nil, want a marshal error")
	}
}
