// Package geo converts between geographic coordinates and the fixed zoom
// Web-Mercator tile grid.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	Zoom     = 15
	GridSize = 1 << Zoom
)

type GeoPoint struct {
	Lat float64
	Lon float64
}

func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Precise is a fractional position in the tile grid.
type Precise struct {
	X float64
	Y float64
}

func (p Precise) Floor() Rounded {
	return Rounded{
		X: int(math.Floor(p.X)),
		Y: int(math.Floor(p.Y)),
	}
}

func (p Precise) Sub(r Rounded) Precise {
	return Precise{X: p.X - float64(r.X), Y: p.Y - float64(r.Y)}
}

// Rounded addresses a whole tile in the grid.
type Rounded struct {
	X int
	Y int
}

func (r Rounded) Valid() bool {
	return r.X >= 0 && r.X < GridSize && r.Y >= 0 && r.Y < GridSize
}

func (r Rounded) Tile() maptile.Tile {
	return maptile.New(uint32(r.X), uint32(r.Y), Zoom)
}

// DomainError is returned for inputs the projection is undefined for.
type DomainError struct {
	Field string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("geo: %s %v outside projection domain", e.Field, e.Value)
}

// ToPrecise projects lat/lon onto the grid. Latitude must be strictly inside
// (-90, 90); longitude is not clamped.
func ToPrecise(lat, lon float64) (Precise, error) {
	if math.IsNaN(lat) || lat <= -90 || lat >= 90 {
		return Precise{}, &DomainError{Field: "latitude", Value: lat}
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Precise{}, &DomainError{Field: "longitude", Value: lon}
	}

	phi := lat * math.Pi / 180
	x := (lon + 180) / 360 * GridSize
	y := (1 - math.Log(math.Tan(phi)+1/math.Cos(phi))/math.Pi) / 2 * GridSize

	return Precise{X: x, Y: y}, nil
}

func ToRounded(lat, lon float64) (Rounded, error) {
	p, err := ToPrecise(lat, lon)
	if err != nil {
		return Rounded{}, err
	}
	return p.Floor(), nil
}

// ToGeoPoint returns the north-west corner of tile (x, y), rounded to six
// decimal places.
func ToGeoPoint(x, y int) GeoPoint {
	n := math.Pi - 2*math.Pi*float64(y)/GridSize
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	lon := float64(x)/GridSize*360 - 180

	return GeoPoint{Lat: round6(lat), Lon: round6(lon)}
}

func round6(v float64) float64 {
	return math.Floor(v*1e6+0.5) / 1e6
}
