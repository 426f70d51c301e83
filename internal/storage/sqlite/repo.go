package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"salesetl/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Key design points vs Postgres:
//   - "INTEGER PRIMARY KEY" is special in sqlite: it aliases the rowid and
//     auto-generates values, so "serial" maps to it.
//   - SQLite has no DATE type; normalized YYYY-MM-DD dates are stored as TEXT,
//     which still sorts and compares correctly.
//   - There is no DROP ... CASCADE. FK clauses are only enforced under
//     PRAGMA foreign_keys=ON, which this repo leaves off so a parent table
//     can be dropped and recreated without touching children first.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) RecreateTable(ctx context.Context, spec storage.TableSpec) error {
	dropSQL, createSQL, err := buildRecreateSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", spec.Name, err)
	}
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows performs a single multi-row insert statement.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		args = append(args, row...)
	}

	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repo) SelectKeyValue(ctx context.Context, table string, keyColumns []string, valueColumn string) (map[string]int64, error) {
	if table == "" || len(keyColumns) == 0 || valueColumn == "" {
		return nil, fmt.Errorf("SelectKeyValue: table, keyColumns, valueColumn are required")
	}

	cols := make([]string, 0, len(keyColumns)+1)
	for _, c := range keyColumns {
		cols = append(cols, sqlIdent(c))
	}
	cols = append(cols, sqlIdent(valueColumn))
	q := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(cols, ", "), table)

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		keyVals := make([]any, len(keyColumns))
		dests := make([]any, 0, len(keyColumns)+1)
		for i := range keyVals {
			dests = append(dests, &keyVals[i])
		}
		var id sql.NullInt64
		dests = append(dests, &id)

		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		if !id.Valid {
			return nil, fmt.Errorf(
				"sqlite: %s.%s is NULL; surrogate key not auto-generated (serial must map to INTEGER PRIMARY KEY)",
				table, valueColumn,
			)
		}

		parts := make([]string, len(keyVals))
		for i, v := range keyVals {
			parts[i] = storage.NormalizeKey(v)
		}
		out[storage.JoinKey(parts...)] = id.Int64
	}
	return out, rows.Err()
}

func (r *Repo) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// buildRecreateSQL generates the DROP + CREATE statements for a table.
func buildRecreateSQL(t storage.TableSpec) (dropSQL, createSQL string, err error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", "", fmt.Errorf("table name is empty")
	}

	dropSQL = fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, t.Name)

	var parts []string
	if strings.TrimSpace(t.PrimaryKey.Name) == "" {
		return "", "", fmt.Errorf("table %s: primary key name is required", t.Name)
	}
	parts = append(parts, fmt.Sprintf(`%s INTEGER PRIMARY KEY AUTOINCREMENT`, sqlIdent(t.PrimaryKey.Name)))

	for _, c := range t.Columns {
		typ, err := sqliteType(c.Type)
		if err != nil {
			return "", "", fmt.Errorf("table %s column %s: %w", t.Name, c.Name, err)
		}
		col := fmt.Sprintf("%s %s", sqlIdent(c.Name), typ)
		if !c.Nullable {
			col += " NOT NULL"
		}
		// Enforcement depends on PRAGMA foreign_keys=ON; kept as documentation
		// of the FK edge either way.
		if c.References != "" {
			col += " REFERENCES " + c.References
		}
		parts = append(parts, col)
	}

	createSQL = fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", t.Name, strings.Join(parts, ",\n  "))
	return dropSQL, createSQL, nil
}

// sqliteType maps the portable column types to SQLite storage classes.
func sqliteType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "text", "date":
		return "TEXT", nil
	case "integer":
		return "INTEGER", nil
	case "real":
		return "REAL", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}
