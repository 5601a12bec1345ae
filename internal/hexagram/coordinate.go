// Package hexagram maps user-supplied numbers onto the hexagram coordinate
// space used to address divination texts and images.
package hexagram

import "fmt"

const (
	// TrigramCount is the modulus for the two hexagram components.
	TrigramCount = 8
	// LineCount is the modulus for the changing-line component.
	LineCount = 6
)

// Coordinate addresses one reading: Upper and Lower select the hexagram,
// Line selects the changing line within it.
type Coordinate struct {
	Upper int
	Lower int
	Line  int
}

// Derive reduces three arbitrary integers to a coordinate. It uses floor
// modulo, so negative inputs wrap into range instead of staying negative
// the way Go's % operator would.
func Derive(first, second, third int) Coordinate {
	return Coordinate{
		Upper: floorMod(first, TrigramCount),
		Lower: floorMod(second, TrigramCount),
		Line:  floorMod(third, LineCount),
	}
}

// Parent returns the hexagram key, e.g. "1-2". Text records and image
// objects are filed under this key.
func (c Coordinate) Parent() string {
	return fmt.Sprintf("%d-%d", c.Upper, c.Lower)
}

// Child returns the changing-line key within the parent, e.g. "1".
func (c Coordinate) Child() string {
	return fmt.Sprintf("%d", c.Line)
}

func (c Coordinate) String() string {
	return c.Parent() + "/" + c.Child()
}

func floorMod(x, m int) int {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}
