package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"salesetl/internal/storage"
)

// Repo implements storage.Repository for Microsoft SQL Server.
//
// Differences from the Postgres backend:
//   - No DROP TABLE ... CASCADE. The cascading drop is emulated: first drop
//     every foreign key constraint that references the table (via
//     sys.foreign_keys), then drop the table itself.
//   - SQL Server has a hard limit of 2100 parameters per statement, so bulk
//     inserts are chunked internally. Each chunk is still a single statement
//     (one implicit transaction); callers keep controlling the logical batch.
//   - "serial" maps to INT IDENTITY(1,1), "text" to NVARCHAR(MAX).
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New constructs a Repo using database/sql and the "sqlserver" driver.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}

	// Conservative defaults for ETL-style bursty loads.
	db.SetMaxOpenConns(64)
	db.SetMaxIdleConns(64)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

// RecreateTable drops the table together with any foreign keys referencing
// it, then creates it fresh from the spec.
func (r *Repo) RecreateTable(ctx context.Context, spec storage.TableSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return fmt.Errorf("mssql: table name is empty")
	}

	// SQL Server refuses to drop a table while FK constraints point at it,
	// so drop those constraints first. Dynamic SQL keeps this a single
	// round trip.
	dropFKs := fmt.Sprintf(`
DECLARE @sql NVARCHAR(MAX) = N'';
SELECT @sql += N'ALTER TABLE ' + QUOTENAME(OBJECT_SCHEMA_NAME(parent_object_id))
	+ N'.' + QUOTENAME(OBJECT_NAME(parent_object_id))
	+ N' DROP CONSTRAINT ' + QUOTENAME(name) + N';'
FROM sys.foreign_keys
WHERE referenced_object_id = OBJECT_ID(N'%s');
EXEC sp_executesql @sql;`, spec.Name)

	if _, err := r.db.ExecContext(ctx, dropFKs); err != nil {
		return fmt.Errorf("mssql: drop foreign keys referencing %s: %w", spec.Name, err)
	}

	dropSQL := fmt.Sprintf(`IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s;`,
		spec.Name, mssqlIdent(spec.Name))
	if _, err := r.db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("mssql: drop table %s: %w", spec.Name, err)
	}

	createSQL, err := buildCreateSQL(spec)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("mssql: create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows bulk-inserts rows, chunking so each statement stays comfortably
// below the 2100-parameter limit.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if table == "" {
		return 0, fmt.Errorf("InsertRows: table is empty")
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("InsertRows: columns is empty")
	}

	maxRows := insertChunkRows(len(columns))

	var total int64
	for start := 0; start < len(rows); start += maxRows {
		end := start + maxRows
		if end > len(rows) {
			end = len(rows)
		}

		sqlText, args := buildInsertSQL(table, columns, rows[start:end])
		res, err := r.db.ExecContext(ctx, sqlText, args...)
		if err != nil {
			return total, fmt.Errorf("mssql: insert into %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *Repo) SelectKeyValue(ctx context.Context, table string, keyColumns []string, valueColumn string) (map[string]int64, error) {
	if table == "" || len(keyColumns) == 0 || valueColumn == "" {
		return nil, fmt.Errorf("SelectKeyValue: table, keyColumns, valueColumn are required")
	}

	cols := make([]string, 0, len(keyColumns)+1)
	for _, c := range keyColumns {
		cols = append(cols, mssqlIdent(c))
	}
	cols = append(cols, mssqlIdent(valueColumn))
	q := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(cols, ", "), mssqlIdent(table))

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("mssql: SelectKeyValue query %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		keyVals := make([]any, len(keyColumns))
		dests := make([]any, 0, len(keyColumns)+1)
		for i := range keyVals {
			dests = append(dests, &keyVals[i])
		}
		var id int64
		dests = append(dests, &id)

		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("mssql: SelectKeyValue scan %s: %w", table, err)
		}

		parts := make([]string, len(keyVals))
		for i, v := range keyVals {
			parts[i] = storage.NormalizeKey(v)
		}
		out[storage.JoinKey(parts...)] = id
	}
	return out, rows.Err()
}

func (r *Repo) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, mssqlIdent(table))
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("mssql: count %s: %w", table, err)
	}
	return n, nil
}

// insertChunkRows returns how many rows fit in one statement. Each row uses
// one parameter per column; stay under the 2100 limit with room to spare.
func insertChunkRows(columns int) int {
	n := 2000 / columns
	if n < 1 {
		n = 1
	}
	return n
}

/* ---------- SQL builders ---------- */

// buildInsertSQL constructs one multi-row INSERT with @pN placeholders.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
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
			b.WriteString(fmt.Sprintf("@p%d", p))
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(";")
	return b.String(), args
}

func buildCreateSQL(t storage.TableSpec) (string, error) {
	cols := make([]string, 0, len(t.Columns)+1)

	pk := strings.TrimSpace(t.PrimaryKey.Name)
	if pk == "" {
		return "", fmt.Errorf("mssql: table %s: primary key name is required", t.Name)
	}
	cols = append(cols, fmt.Sprintf(`%s INT IDENTITY(1,1) PRIMARY KEY`, mssqlIdent(pk)))

	for _, c := range t.Columns {
		typ, err := mssqlType(c.Type)
		if err != nil {
			return "", fmt.Errorf("mssql: table %s column %s: %w", t.Name, c.Name, err)
		}
		col := fmt.Sprintf("%s %s", mssqlIdent(c.Name), typ)
		if !c.Nullable {
			col += " NOT NULL"
		}
		if c.References != "" {
			col += " REFERENCES " + c.References
		}
		cols = append(cols, col)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", mssqlIdent(t.Name), strings.Join(cols, ",\n  ")), nil
}

// mssqlType maps the portable column types to SQL Server types.
func mssqlType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "text":
		return "NVARCHAR(MAX)", nil
	case "integer":
		return "INT", nil
	case "real":
		return "FLOAT", nil
	case "date":
		return "DATE", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

// mssqlIdent quotes a single identifier segment with brackets.
func mssqlIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
