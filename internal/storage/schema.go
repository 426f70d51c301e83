// The TableSpec types live here so that both the pipeline and the backend
// packages can import them without circular deps.
package storage

// TableSpec describes one destination table: its surrogate key, columns, and
// foreign-key edges. Backends translate the portable type names ("serial",
// "text", "integer", "real", "date") into their own dialect.
type TableSpec struct {
	Name       string
	PrimaryKey PrimaryKeySpec
	Columns    []ColumnSpec
}

// PrimaryKeySpec is the storage-assigned surrogate identity column.
type PrimaryKeySpec struct {
	Name string
	Type string // "serial"
}

type ColumnSpec struct {
	Name       string
	Type       string
	References string // e.g. "region(regionid)"
	Nullable   bool
}

// ColumnNames returns the non-key column names in declaration order. This is
// the column list used for bulk inserts, which never write the surrogate key.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}
