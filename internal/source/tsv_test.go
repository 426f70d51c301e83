package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeExport(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.txt")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func scanAll(t *testing.T, s *Scanner) [][]string {
	t.Helper()
	var out [][]string
	for s.Next() {
		fields := append([]string(nil), s.Fields()...)
		out = append(out, fields)
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestOpenSkipsHeader(t *testing.T) {
	t.Parallel()

	path := writeExport(t, []byte("name\tcity\nAda\tLondon\nGrace\tNew York\n"))
	s, err := Open(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got := scanAll(t, s)
	if len(got) != 2 {
		t.Fatalf("records = %v, want 2", got)
	}
	if got[0][0] != "Ada" || got[1][1] != "New York" {
		t.Errorf("records = %v", got)
	}
	if s.Line() != 3 {
		t.Errorf("final line = %d, want 3", s.Line())
	}
}

func TestHeaderOnlyFileYieldsNoRecords(t *testing.T) {
	t.Parallel()

	path := writeExport(t, []byte("name\tcity\n"))
	s, err := Open(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if got := scanAll(t, s); len(got) != 0 {
		t.Errorf("records = %v, want none", got)
	}
}

func TestBOMStrippedWithoutHeader(t *testing.T) {
	t.Parallel()

	path := writeExport(t, []byte("\xEF\xBB\xBFAda\tLondon\n"))
	s, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got := scanAll(t, s)
	if len(got) != 1 || got[0][0] != "Ada" {
		t.Errorf("records = %v, want the BOM gone from the first field", got)
	}
}

func TestCRLFLineEndings(t *testing.T) {
	t.Parallel()

	path := writeExport(t, []byte("name\tcity\r\nAda\tLondon\r\n"))
	s, err := Open(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got := scanAll(t, s)
	if len(got) != 1 {
		t.Fatalf("records = %v, want 1", got)
	}
	if got[0][1] != "London" {
		t.Errorf("city = %q, want no trailing carriage return", got[0][1])
	}
}

func TestWindows1252Decoding(t *testing.T) {
	t.Parallel()

	// 0xE9 is é in windows-1252
	path := writeExport(t, []byte("name\tcity\nRen\xE9\tOrl\xE9ans\n"))
	s, err := Open(path, Options{Encoding: "windows-1252", HasHeader: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got := scanAll(t, s)
	if len(got) != 1 {
		t.Fatalf("records = %v, want 1", got)
	}
	if got[0][0] != "René" || got[0][1] != "Orléans" {
		t.Errorf("records = %v, want decoded accents", got)
	}
}

func TestLatin1Decoding(t *testing.T) {
	t.Parallel()

	path := writeExport(t, []byte("M\xFCnchen\n"))
	s, err := Open(path, Options{Encoding: "latin-1"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got := scanAll(t, s)
	if len(got) != 1 || got[0][0] != "München" {
		t.Errorf("records = %v, want München", got)
	}
}

func TestUnsupportedEncoding(t *testing.T) {
	t.Parallel()

	path := writeExport(t, []byte("x\n"))
	_, err := Open(path, Options{Encoding: "ebcdic"})
	if err == nil {
		t.Fatal("want error for unsupported encoding")
	}
	if !strings.Contains(err.Error(), "ebcdic") {
		t.Error("error should name the offending encoding")
	}
}

func TestLongLines(t *testing.T) {
	t.Parallel()

	// A line well past bufio's default 64K token size must still scan.
	long := strings.Repeat("Perfume;", 40_000) // ~320KB
	path := writeExport(t, []byte("header\nAda\t"+long+"\n"))
	s, err := Open(path, Options{HasHeader: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got := scanAll(t, s)
	if len(got) != 1 {
		t.Fatalf("records = %v, want 1", len(got))
	}
	if got[0][1] != long {
		t.Error("long field was truncated")
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "absent.txt"), Options{}); err == nil {
		t.Fatal("want error for missing file")
	}
}
