package storage

import "testing"

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Germany", "Germany"},
		{"string-trimmed", "  Germany  ", "Germany"},
		{"int64", int64(8429529), "8429529"},
		{"int", 42, "42"},
		{"bytes", []byte(" Western Europe "), "Western Europe"},
		{"float", 1.5, "1.5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeKey(tc.in); got != tc.want {
				t.Fatalf("NormalizeKey(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestJoinKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"two parts", []string{"Jean", "Paul Gaultier"}, "Jean Paul Gaultier"},
		{"empty last part dropped", []string{"Madonna", ""}, "Madonna"},
		{"empty first part dropped", []string{"", "Cher"}, "Cher"},
		{"whitespace-only dropped", []string{"A", "   ", "B"}, "A B"},
		{"no parts", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := JoinKey(tc.parts...); got != tc.want {
				t.Fatalf("JoinKey(%v) = %q, want %q", tc.parts, got, tc.want)
			}
		})
	}
}
