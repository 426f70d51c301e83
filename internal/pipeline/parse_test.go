package pipeline

import "testing"

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"Jean Paul Gaultier", "Jean", "Paul Gaultier"},
		{"Madonna", "Madonna", ""},
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"  Ada Lovelace  ", "Ada", "Lovelace"},
		{"", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			first, last := SplitName(tc.in)
			if first != tc.first || last != tc.last {
				t.Fatalf("SplitName(%q) = (%q, %q), want (%q, %q)", tc.in, first, last, tc.first, tc.last)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20230115", "2023-01-15", true},
		{"2023-01-16", "2023-01-16", true},
		{"2023/01/17", "2023-01-17", true},
		{"01/18/2023", "2023-01-18", true},
		{"20231399", "", false}, // eight digits but not a date
		{"20230229", "", false}, // 2023 is not a leap year
		{"20240229", "2024-02-29", true},
		{"yesterday", "", false},
		{"", "", false},
		{"2023011", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := NormalizeDate(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{"3.9", 3, true}, // truncation, not rounding
		{"0", 0, true},
		{"bad", 0, false},
		{"", 0, false},
		{"-2", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseQuantity(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParseQuantity(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10.50", 10.50, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"free", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParsePrice(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParsePrice(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	got := SplitList("Perfume; Scarf ;Hat")
	want := []string{"Perfume", "Scarf", "Hat"}
	if len(got) != len(want) {
		t.Fatalf("SplitList: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SplitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// An empty field is one empty position, not zero positions.
	if got := SplitList(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("SplitList(\"\") = %v, want one empty element", got)
	}
}
