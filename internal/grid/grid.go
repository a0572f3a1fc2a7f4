// Package grid plans which tiles cover an area around an origin tile.
package grid

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/geo"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/quadkey"
)

// Window returns the radius x radius tiles whose top-left corner is
// origin shifted back by radius/2 on both axes, x major. Tiles that fall
// outside the grid are left out.
func Window(origin geo.Rounded, radius int) []geo.Rounded {
	if radius <= 0 {
		return nil
	}

	x0 := origin.X - radius/2
	y0 := origin.Y - radius/2

	tiles := make([]geo.Rounded, 0, radius*radius)
	for x := x0; x < x0+radius; x++ {
		for y := y0; y < y0+radius; y++ {
			t := geo.Rounded{X: x, Y: y}
			if !t.Valid() {
				continue
			}
			tiles = append(tiles, t)
		}
	}
	return tiles
}

// Offsets places points relative to the top-left corner of origin, in tile
// units.
func Offsets(points []geo.GeoPoint, origin geo.Rounded) ([]geo.Precise, error) {
	offsets := make([]geo.Precise, 0, len(points))
	for i, p := range points {
		precise, err := geo.ToPrecise(p.Lat, p.Lon)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		offsets = append(offsets, precise.Sub(origin))
	}
	return offsets, nil
}

// Keys expands tiles into cache keys, one per tile and kind.
func Keys(tiles []geo.Rounded, kinds ...entity.Kind) []entity.TileKey {
	keys := make([]entity.TileKey, 0, len(tiles)*len(kinds))
	for _, t := range tiles {
		qk := quadkey.Encode(t.X, t.Y)
		for _, kind := range kinds {
			keys = append(keys, entity.TileKey{QuadKey: qk, Kind: kind})
		}
	}
	return keys
}
