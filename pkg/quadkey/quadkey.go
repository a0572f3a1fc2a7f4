// Package quadkey encodes tile grid coordinates as base-4 quadkeys, one digit
// per zoom level with the most significant level first.
package quadkey

import (
	"fmt"
	"strings"

	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/geo"
)

// MaxLevel bounds decodable keys so coordinates fit in an int on every
// platform. Keys of any length up to MaxLevel are accepted, including "".
const MaxLevel = 30

// InvalidQuadKeyError reports the first malformed character of a key.
// Position is -1 when the key is longer than MaxLevel.
type InvalidQuadKeyError struct {
	Key      string
	Char     rune
	Position int
}

func (e *InvalidQuadKeyError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("quadkey: invalid length %d for key %q", len(e.Key), e.Key)
	}
	return fmt.Sprintf("quadkey: invalid digit %q at position %d in %q", e.Char, e.Position, e.Key)
}

// Encode returns the quadkey of tile (x, y) at the fixed grid zoom.
func Encode(x, y int) string {
	return EncodeLevel(x, y, geo.Zoom)
}

// EncodeLevel returns a quadkey of exactly level digits. Bits of x and y above
// level are ignored.
func EncodeLevel(x, y, level int) string {
	var b strings.Builder
	b.Grow(level)

	for a := level; a > 0; a-- {
		mask := 1 << (a - 1)
		digit := byte('0')
		if x&mask != 0 {
			digit++
		}
		if y&mask != 0 {
			digit += 2
		}
		b.WriteByte(digit)
	}

	return b.String()
}

// Decode returns the tile addressed by key at zoom Level(key). The empty key
// is the single level 0 tile.
func Decode(key string) (geo.Rounded, error) {
	if err := checkLength(key); err != nil {
		return geo.Rounded{}, err
	}

	var x, y int
	z := len(key)
	for i := 0; i < z; i++ {
		mask := 1 << (z - i - 1)
		switch key[i] {
		case '0':
		case '1':
			x |= mask
		case '2':
			y |= mask
		case '3':
			x |= mask
			y |= mask
		default:
			return geo.Rounded{}, invalidDigit(key, i)
		}
	}

	return geo.Rounded{X: x, Y: y}, nil
}

func Validate(key string) error {
	if err := checkLength(key); err != nil {
		return err
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '3' {
			return invalidDigit(key, i)
		}
	}
	return nil
}

func Level(key string) int {
	return len(key)
}

func checkLength(key string) error {
	if len(key) > MaxLevel {
		return &InvalidQuadKeyError{Key: key, Position: -1}
	}
	return nil
}

func invalidDigit(key string, i int) error {
	return &InvalidQuadKeyError{Key: key, Char: rune(key[i]), Position: i}
}
