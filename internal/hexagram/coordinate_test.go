package hexagram

import "testing"

func TestDerive(t *testing.T) {
	tests := []struct {
		name                 string
		first, second, third int
		upper, lower, line   int
		parent, child        string
	}{
		{"zeros", 0, 0, 0, 0, 0, 0, "0-0", "0"},
		{"in range", 1, 2, 3, 1, 2, 3, "1-2", "3"},
		{"wraps above", 17, 10, 13, 1, 2, 1, "1-2", "1"},
		{"exact moduli", 8, 8, 6, 0, 0, 0, "0-0", "0"},
		{"negative wraps up", -1, -1, -1, 7, 7, 5, "7-7", "5"},
		{"large negative", -17, -10, -13, 7, 6, 5, "7-6", "5"},
		{"mixed signs", -8, 9, -6, 0, 1, 0, "0-1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Derive(tt.first, tt.second, tt.third)
			if c.Upper != tt.upper || c.Lower != tt.lower || c.Line != tt.line {
				t.Errorf("Derive(%d, %d, %d) = %+v, want {%d %d %d}",
					tt.first, tt.second, tt.third, c, tt.upper, tt.lower, tt.line)
			}
			if got := c.Parent(); got != tt.parent {
				t.Errorf("Parent() = %q, want %q", got, tt.parent)
			}
			if got := c.Child(); got != tt.child {
				t.Errorf("Child() = %q, want %q", got, tt.child)
			}
		})
	}
}

func TestDeriveCongruentInputs(t *testing.T) {
	// Inputs that differ by a full cycle land on the same coordinate.
	if Derive(8, 8, 6) != Derive(0, 0, 0) {
		t.Errorf("Derive(8, 8, 6) = %v, want %v", Derive(8, 8, 6), Derive(0, 0, 0))
	}
	if Derive(15, 23, 11) != Derive(7, 7, 5) {
		t.Errorf("Derive(15, 23, 11) = %v, want %v", Derive(15, 23, 11), Derive(7, 7, 5))
	}
}

func TestDeriveAlwaysInRange(t *testing.T) {
	for i := -100; i <= 100; i++ {
		c := Derive(i, i, i)
		if c.Upper < 0 || c.Upper >= TrigramCount {
			t.Fatalf("Derive(%d,...) upper out of range: %d", i, c.Upper)
		}
		if c.Lower < 0 || c.Lower >= TrigramCount {
			t.Fatalf("Derive(%d,...) lower out of range: %d", i, c.Lower)
		}
		if c.Line < 0 || c.Line >= LineCount {
			t.Fatalf("Derive(%d,...) line out of range: %d", i, c.Line)
		}
	}
}

func TestCoordinateString(t *testing.T) {
	c := Derive(17, 10, 13)
	if got, want := c.String(), "1-2/1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
