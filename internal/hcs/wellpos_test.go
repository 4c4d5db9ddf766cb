package hcs

import "testing"

func TestParseWellPosition(t *testing.T) {
	cases := []struct {
		pos      string
		row, col int
	}{
		{"A01", 1, 1},
		{"A1", 1, 1},
		{"H12", 8, 12},
		{"P24", 16, 24},
		{"AA01", 27, 1},
		{"AF48", 32, 48},
		{" b03 ", 2, 3},
	}
	for _, c := range cases {
		row, col, err := ParseWellPosition(c.pos)
		if err != nil {
			t.Errorf("ParseWellPosition(%q) failed: %v", c.pos, err)
			continue
		}
		if row != c.row || col != c.col {
			t.Errorf("ParseWellPosition(%q) = (%d, %d), want (%d, %d)", c.pos, row, col, c.row, c.col)
		}
	}
}

func TestParseWellPositionInvalid(t *testing.T) {
	for _, pos := range []string{"", "12", "A", "A0", "A-1", "Axx"} {
		if _, _, err := ParseWellPosition(pos); err == nil {
			t.Errorf("ParseWellPosition(%q) succeeded, want error", pos)
		}
	}
}

func TestFormatWellPosition(t *testing.T) {
	cases := []struct {
		row, col int
		want     string
	}{
		{1, 1, "A01"},
		{8, 12, "H12"},
		{27, 1, "AA01"},
	}
	for _, c := range cases {
		if got := FormatWellPosition(c.row, c.col); got != c.want {
			t.Errorf("FormatWellPosition(%d, %d) = %q, want %q", c.row, c.col, got, c.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for row := 1; row <= 32; row++ {
		for col := 1; col <= 48; col += 7 {
			pos := FormatWellPosition(row, col)
			r, c, err := ParseWellPosition(pos)
			if err != nil {
				t.Fatalf("ParseWellPosition(%q) failed: %v", pos, err)
			}
			if r != row || c != col {
				t.Fatalf("round trip (%d, %d) -> %q -> (%d, %d)", row, col, pos, r, c)
			}
		}
	}
}
