package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pipeline.json", `{
		"job": "sales_normalize",
		"source": {"path": "data/sales.txt", "encoding": "windows-1252"},
		"storage": {"kind": "postgres", "dsn": "postgresql://localhost/sales"},
		"runtime": {"batch_size": 1000}
	}`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "sales_normalize" {
		t.Errorf("job = %q", p.Job)
	}
	if p.Source.Path != "data/sales.txt" || p.Source.Encoding != "windows-1252" {
		t.Errorf("source = %+v", p.Source)
	}
	if p.Storage.Kind != "postgres" {
		t.Errorf("storage.kind = %q", p.Storage.Kind)
	}
	if p.Runtime.BatchSize != 1000 {
		t.Errorf("batch_size = %d", p.Runtime.BatchSize)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pipeline.yaml", `
job: sales_normalize_local
source:
  path: data/sales.txt
storage:
  kind: sqlite
  dsn: file:sales.db
runtime:
  batch_size: 250
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "sales_normalize_local" {
		t.Errorf("job = %q", p.Job)
	}
	if p.Storage.Kind != "sqlite" || p.Storage.DSN != "file:sales.db" {
		t.Errorf("storage = %+v", p.Storage)
	}
	if p.Runtime.BatchSize != 250 {
		t.Errorf("batch_size = %d", p.Runtime.BatchSize)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("want error for missing file")
	}

	bad := writeFile(t, "broken.json", `{"job": `)
	if _, err := Load(bad); err == nil {
		t.Error("want error for malformed json")
	}
}

func TestEffectiveBatchSize(t *testing.T) {
	t.Parallel()

	if got := (RuntimeConfig{}).EffectiveBatchSize(); got != DefaultBatchSize {
		t.Errorf("zero batch size resolves to %d, want %d", got, DefaultBatchSize)
	}
	if got := (RuntimeConfig{BatchSize: 42}).EffectiveBatchSize(); got != 42 {
		t.Errorf("explicit batch size resolves to %d, want 42", got)
	}
}
