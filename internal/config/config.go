// Package config defines the configuration model for the sales normalization
// pipeline. It is intentionally small and explicit so that pipeline files can
// be loaded from disk and passed through the program without additional glue
// code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the structure used in pipeline files
//     under configs/pipelines/.
//  3. Both JSON and YAML pipeline files are accepted; the format is picked by
//     file extension.
//
// Example (trimmed):
//
//	{
//	  "job":     "sales_normalize",
//	  "source":  { "path": "data/sales.txt", "encoding": "utf-8" },
//	  "storage": { "kind": "postgres", "dsn": "postgresql://..." },
//	  "runtime": { "batch_size": 5000 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline describes a full normalization run. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the run; it is used for metrics labels and log lines.
	Job string `json:"job" yaml:"job"`

	// Source describes the tab-delimited export to read.
	Source Source `json:"source" yaml:"source"`

	// Storage describes where the normalized tables are written.
	Storage Storage `json:"storage" yaml:"storage"`

	// Runtime controls batching.
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// Source identifies the input file.
type Source struct {
	// Path is the local filesystem path to the export file.
	Path string `json:"path" yaml:"path"`

	// Encoding is the source character set: "utf-8" (default), "latin-1",
	// or "windows-1252".
	Encoding string `json:"encoding" yaml:"encoding"`
}

// Storage selects the database backend used to persist the tables.
type Storage struct {
	// Kind selects the registered backend: "postgres", "sqlite", or "mssql".
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn" yaml:"dsn"`
}

// RuntimeConfig controls batching behavior.
type RuntimeConfig struct {
	// BatchSize caps the number of rows per bulk INSERT statement.
	// Zero means DefaultBatchSize.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// DefaultBatchSize is the bulk-insert batch size used when the pipeline file
// does not set runtime.batch_size.
const DefaultBatchSize = 5000

// EffectiveBatchSize resolves the configured batch size against the default.
func (r RuntimeConfig) EffectiveBatchSize() int {
	if r.BatchSize > 0 {
		return r.BatchSize
	}
	return DefaultBatchSize
}

// Load reads a pipeline file in JSON or YAML form, chosen by extension
// (.json vs .yaml/.yml).
func Load(path string) (Pipeline, error) {
	var p Pipeline

	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}
	return p, nil
}
