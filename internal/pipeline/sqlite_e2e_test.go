package pipeline

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"salesetl/internal/config"

	// registers the "sqlite" storage backend and the database/sql driver.
	_ "salesetl/internal/storage/sqlite"
)

const exportHeader = "name\taddress\tcity\tcountry\tregion\tproducts\tcategories\tdescriptions\tprices\tquantities\tdates"

// TestSQLiteEndToEnd runs the full pipeline against a real sqlite file and
// checks the loaded tables, including foreign key resolution across stages.
func TestSQLiteEndToEnd(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "sales.txt")
	content := exportHeader + "\n" + exportLines[0] + "\n" + exportLines[1] + "\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	dsn := "file:" + filepath.Join(dir, "sales.db")
	r := &Runner{
		Config: config.Pipeline{
			Job:     "e2e",
			Source:  config.Source{Path: src},
			Storage: config.Storage{Kind: "sqlite", DSN: dsn},
			Runtime: config.RuntimeConfig{BatchSize: 2}, // force multiple batches
		},
	}

	ctx := context.Background()
	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	counts, err := r.TableCounts(ctx)
	if err != nil {
		t.Fatalf("table counts: %v", err)
	}
	want := map[string]int64{
		"region":          1,
		"country":         1,
		"customer":        2,
		"productcategory": 1,
		"product":         2,
		"orderdetail":     3,
	}
	for _, c := range counts {
		if c.Rows != want[c.Table] {
			t.Errorf("table %s has %d rows, want %d", c.Table, c.Rows, want[c.Table])
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	// The name split must survive the round trip.
	var first, last string
	err = db.QueryRow(`SELECT firstname, lastname FROM customer WHERE firstname = 'Madonna'`).Scan(&first, &last)
	if err != nil {
		t.Fatalf("query customer: %v", err)
	}
	if first != "Madonna" || last != "" {
		t.Errorf("customer = (%q, %q), want (Madonna, \"\")", first, last)
	}

	// Every orderdetail row must join back through its foreign keys.
	var joined int64
	err = db.QueryRow(`
		SELECT COUNT(*)
		FROM orderdetail od
		JOIN customer c ON c.customerid = od.customerid
		JOIN product p ON p.productid = od.productid
		JOIN productcategory pc ON pc.productcategoryid = p.productcategoryid
		JOIN country co ON co.countryid = c.countryid
		JOIN region re ON re.regionid = co.regionid`).Scan(&joined)
	if err != nil {
		t.Fatalf("join query: %v", err)
	}
	if joined != 3 {
		t.Errorf("joined orderdetail rows = %d, want 3", joined)
	}

	// Madonna's order carried quantity "bad": it loads as 0.
	var qty int
	err = db.QueryRow(`
		SELECT od.quantityordered
		FROM orderdetail od
		JOIN customer c ON c.customerid = od.customerid
		WHERE c.firstname = 'Madonna'`).Scan(&qty)
	if err != nil {
		t.Fatalf("query quantity: %v", err)
	}
	if qty != 0 {
		t.Errorf("defaulted quantity = %d, want 0", qty)
	}

	// Dates normalized regardless of source format.
	rows, err := db.Query(`SELECT orderdate FROM orderdetail ORDER BY orderdate`)
	if err != nil {
		t.Fatalf("query dates: %v", err)
	}
	defer rows.Close()
	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			t.Fatalf("scan date: %v", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	wantDates := []string{"2023-01-15", "2023-01-16", "2023-01-17"}
	if len(dates) != len(wantDates) {
		t.Fatalf("dates = %v, want %v", dates, wantDates)
	}
	for i := range wantDates {
		if dates[i] != wantDates[i] {
			t.Errorf("dates[%d] = %q, want %q", i, dates[i], wantDates[i])
		}
	}
}

// TestSQLiteRerunIsAFullReload runs the pipeline twice over the same file
// and expects identical counts: drop-and-recreate semantics, not appends.
func TestSQLiteRerunIsAFullReload(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "sales.txt")
	content := exportHeader + "\n" + exportLines[0] + "\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	r := &Runner{
		Config: config.Pipeline{
			Job:     "rerun",
			Source:  config.Source{Path: src},
			Storage: config.Storage{Kind: "sqlite", DSN: "file:" + filepath.Join(dir, "sales.db")},
		},
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := r.Run(ctx); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	counts, err := r.TableCounts(ctx)
	if err != nil {
		t.Fatalf("table counts: %v", err)
	}
	for _, c := range counts {
		var want int64
		switch c.Table {
		case "region", "country", "customer", "productcategory":
			want = 1
		case "product", "orderdetail":
			want = 2
		}
		if c.Rows != want {
			t.Errorf("after rerun, table %s has %d rows, want %d", c.Table, c.Rows, want)
		}
	}
}
