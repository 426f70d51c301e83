package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to create a repository.
//
// Kind must match a registered backend kind ("postgres", "sqlite", "mssql").
// DSN is passed through to the backend factory; validation is backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository is a backend-agnostic interface for the normalization pipeline.
//
// IMPORTANT: This interface is intentionally minimal and focused on the
// operations the stage runner needs. Each backend implements these semantics
// in its own idiomatic way (Postgres CASCADE drops, SQL Server FK teardown,
// etc).
type Repository interface {
	// Close releases any backend resources (connections, prepared statements).
	// Callers should treat Close as "call once".
	Close()

	// RecreateTable drops the table if it exists (cascading to dependent
	// foreign keys) and creates it fresh from the spec. Every run performs a
	// full reload, so this runs once per stage before inserting.
	RecreateTable(ctx context.Context, spec TableSpec) error

	// InsertRows bulk-inserts rows into table. Each call executes as a single
	// statement (one transaction); callers control batch size. Returns the
	// number of rows inserted.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// SelectKeyValue returns a mapping from normalized key -> surrogate id.
	// When keyColumns has more than one entry the key is the values joined by
	// a single space (this is how customer full names are reassembled from
	// firstname/lastname).
	SelectKeyValue(ctx context.Context, table string, keyColumns []string, valueColumn string) (map[string]int64, error)

	// CountRows returns the current row count of table.
	CountRows(ctx context.Context, table string) (int64, error)
}

// ---- factories (backends self-register from init) ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package. Registering the
// same kind more than once panics; this is intentional to fail fast and avoid
// ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Safe for concurrent use with Register. Returns an error if cfg.Kind is
// empty or unsupported, plus whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
