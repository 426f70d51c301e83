package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesetl/internal/storage"
)

// Repo implements storage.Repository for Postgres.
//
// Postgres is the primary production backend: native SERIAL surrogate keys,
// DROP TABLE ... CASCADE for the full-reload semantics, and multi-row
// INSERT statements built by buildInsertSQL.
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a new Postgres-backed Repo.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// RecreateTable drops the table (cascading to dependent foreign keys) and
// creates it fresh. Every run is a full reload, so stale dependents from a
// previous run must not survive.
func (r *Repo) RecreateTable(ctx context.Context, spec storage.TableSpec) error {
	dropSQL, createSQL, err := buildRecreateSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := r.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows performs one multi-row INSERT. A single statement is a single
// implicit transaction in Postgres, which is exactly the batching contract.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	sql, args := buildInsertSQL(table, columns, rows)

	cmd, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return cmd.RowsAffected(), nil
}

// SelectKeyValue returns a mapping from normalized key -> surrogate id for
// the whole table.
//
// The returned map key is storage.NormalizeKey(key) — or, for composite
// keys, the non-empty parts joined by a single space — so callers can
// reliably match string/[]byte key round-trips.
func (r *Repo) SelectKeyValue(ctx context.Context, table string, keyColumns []string, valueColumn string) (map[string]int64, error) {
	if table == "" || len(keyColumns) == 0 || valueColumn == "" {
		return nil, fmt.Errorf("SelectKeyValue: table, keyColumns, valueColumn are required")
	}

	q := buildSelectKeyValueSQL(table, keyColumns, valueColumn)

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("SelectKeyValue: query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		keyVals := make([]any, len(keyColumns))
		dests := make([]any, 0, len(keyColumns)+1)
		for i := range keyVals {
			dests = append(dests, &keyVals[i])
		}
		var id int64
		dests = append(dests, &id)

		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("SelectKeyValue: scan %s: %w", table, err)
		}

		parts := make([]string, len(keyVals))
		for i, v := range keyVals {
			parts[i] = storage.NormalizeKey(v)
		}
		out[storage.JoinKey(parts...)] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SelectKeyValue: rows %s: %w", table, err)
	}
	return out, nil
}

// CountRows returns the row count of table.
func (r *Repo) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

/* ---------- SQL builders (pure; unit tested without a database) ---------- */

// buildInsertSQL constructs a single multi-row INSERT statement and its args.
//
// Constraints:
//   - rows must have the same length as columns for every row.
//   - columns must be non-empty.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("$%d", p))
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(";")
	return b.String(), args
}

// buildRecreateSQL generates the DROP + CREATE statements for a table.
//
// Design notes:
//   - The drop uses CASCADE so that dropping a parent (e.g. region) also
//     removes the FK constraints of children created by a previous run.
//   - No UNIQUE constraints: deduplication happens before insertion, not
//     in the database.
func buildRecreateSQL(t storage.TableSpec) (dropSQL, createSQL string, err error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", "", fmt.Errorf("buildRecreateSQL: table name is empty")
	}

	dropSQL = fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE;`, t.Name)

	cols := make([]string, 0, len(t.Columns)+1)

	pk := strings.TrimSpace(t.PrimaryKey.Name)
	if pk == "" {
		return "", "", fmt.Errorf("buildRecreateSQL: table %s: primary key name is required", t.Name)
	}
	cols = append(cols, fmt.Sprintf(`%s SERIAL PRIMARY KEY`, pgIdent(pk)))

	for _, c := range t.Columns {
		def, err := buildColumnDef(c)
		if err != nil {
			return "", "", fmt.Errorf("buildRecreateSQL: table %s: %w", t.Name, err)
		}
		cols = append(cols, def)
	}

	createSQL = fmt.Sprintf(`CREATE TABLE %s (%s);`, t.Name, strings.Join(cols, ", "))
	return dropSQL, createSQL, nil
}

// buildColumnDef renders a single column definition. Foreign key references
// are expressed inline, which keeps the DDL self-contained.
func buildColumnDef(c storage.ColumnSpec) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("column name must be set")
	}

	typ, err := pgType(c.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", name, err)
	}

	var b strings.Builder
	b.WriteString(pgIdent(name))
	b.WriteString(" ")
	b.WriteString(typ)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if ref := strings.TrimSpace(c.References); ref != "" {
		b.WriteString(" REFERENCES ")
		b.WriteString(ref)
	}
	return b.String(), nil
}

// pgType maps the portable column types to Postgres types.
func pgType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "text":
		return "TEXT", nil
	case "integer":
		return "INTEGER", nil
	case "real":
		return "DOUBLE PRECISION", nil
	case "date":
		return "DATE", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func buildSelectKeyValueSQL(table string, keyColumns []string, valueColumn string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for _, c := range keyColumns {
		b.WriteString(pgIdent(c))
		b.WriteString(", ")
	}
	b.WriteString(pgIdent(valueColumn))
	b.WriteString(" FROM ")
	b.WriteString(table)
	return b.String()
}
