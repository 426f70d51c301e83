package postgres

import (
	"strings"
	"testing"

	"salesetl/internal/storage"
)

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	sql, args := buildInsertSQL("country",
		[]string{"country", "regionid"},
		[][]any{{"France", int64(1)}, {"Poland", int64(2)}},
	)

	want := `INSERT INTO country ("country", "regionid") VALUES ($1, $2), ($3, $4);`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 4 {
		t.Fatalf("args = %v, want 4 values", args)
	}
	if args[0] != "France" || args[2] != "Poland" {
		t.Errorf("args out of row order: %v", args)
	}
}

func TestBuildRecreateSQL(t *testing.T) {
	t.Parallel()

	spec := storage.TableSpec{
		Name:       "country",
		PrimaryKey: storage.PrimaryKeySpec{Name: "countryid", Type: "serial"},
		Columns: []storage.ColumnSpec{
			{Name: "country", Type: "text"},
			{Name: "regionid", Type: "integer", References: "region(regionid)"},
		},
	}

	dropSQL, createSQL, err := buildRecreateSQL(spec)
	if err != nil {
		t.Fatalf("buildRecreateSQL: %v", err)
	}

	if dropSQL != `DROP TABLE IF EXISTS country CASCADE;` {
		t.Errorf("dropSQL = %q", dropSQL)
	}
	for _, frag := range []string{
		`"countryid" SERIAL PRIMARY KEY`,
		`"country" TEXT NOT NULL`,
		`"regionid" INTEGER NOT NULL REFERENCES region(regionid)`,
	} {
		if !strings.Contains(createSQL, frag) {
			t.Errorf("createSQL missing %q:\n%s", frag, createSQL)
		}
	}
}

func TestBuildRecreateSQLRejectsBadSpecs(t *testing.T) {
	t.Parallel()

	if _, _, err := buildRecreateSQL(storage.TableSpec{}); err == nil {
		t.Error("want error for empty table name")
	}

	noPK := storage.TableSpec{Name: "x"}
	if _, _, err := buildRecreateSQL(noPK); err == nil {
		t.Error("want error for missing primary key")
	}

	badType := storage.TableSpec{
		Name:       "x",
		PrimaryKey: storage.PrimaryKeySpec{Name: "xid", Type: "serial"},
		Columns:    []storage.ColumnSpec{{Name: "c", Type: "blob"}},
	}
	if _, _, err := buildRecreateSQL(badType); err == nil {
		t.Error("want error for unsupported column type")
	}
}

func TestPGType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"text", "TEXT"},
		{"integer", "INTEGER"},
		{"real", "DOUBLE PRECISION"},
		{"date", "DATE"},
		{" Text ", "TEXT"},
	}
	for _, tc := range tests {
		got, err := pgType(tc.in)
		if err != nil {
			t.Errorf("pgType(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("pgType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := pgType("uuid"); err == nil {
		t.Error("want error for unsupported type")
	}
}

func TestBuildSelectKeyValueSQL(t *testing.T) {
	t.Parallel()

	got := buildSelectKeyValueSQL("customer", []string{"firstname", "lastname"}, "customerid")
	want := `SELECT "firstname", "lastname", "customerid" FROM customer`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPGIdent(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`a"b`); got != `"a""b"` {
		t.Errorf(`pgIdent(a"b) = %s`, got)
	}
}
