package entity

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown tile kind")

type Kind int

const (
	KindBase Kind = iota + 1
	KindSatellite
)

var kinds = []Kind{KindBase, KindSatellite}

func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseKind maps a wire tag ("os", "sat") to a Kind.
func ParseKind(tag string) (Kind, error) {
	switch tag {
	case "os":
		return KindBase, nil
	case "sat":
		return KindSatellite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
}

func (k Kind) Valid() bool {
	return k == KindBase || k == KindSatellite
}

func (k Kind) Tag() string {
	switch k {
	case KindBase:
		return "os"
	case KindSatellite:
		return "sat"
	default:
		return ""
	}
}

// Ext is the file extension of tiles of this kind as served upstream.
func (k Kind) Ext() string {
	switch k {
	case KindBase:
		return "webp"
	case KindSatellite:
		return "jpeg"
	default:
		return ""
	}
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return k.Tag()
}

type TileKey struct {
	QuadKey string
	Kind    Kind
}

// FileName is the flat on-disk name of the tile: "{quadKey}-{tag}.{ext}".
func (k TileKey) FileName() string {
	return fmt.Sprintf("%s-%s.%s", k.QuadKey, k.Kind.Tag(), k.Kind.Ext())
}

func (k TileKey) String() string {
	return k.FileName()
}
