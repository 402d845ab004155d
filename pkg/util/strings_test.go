package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"", 8, 8},
		{"12", 8, 12},
		{" 4 ", 8, 4},
		{"-3", 8, -3},
		{"x", 8, 8},
		{"1.5", 8, 8},
	}
	for _, c := range cases {
		if got := ParseIntDefault(c.in, c.def); got != c.want {
			t.Fatalf("ParseIntDefault(%q, %d) = %d, want %d", c.in, c.def, got, c.want)
		}
	}
}
