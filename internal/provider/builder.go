// Package provider builds upstream tile URLs.
package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jaennil/guide_helper/backend/quadtiles/internal/entity"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/quadkey"
)

const (
	DefaultBaseURL      = "https://t.ssl.ak.dynamic.tiles.virtualearth.net"
	DefaultSatelliteURL = "https://t.ssl.ak.tiles.virtualearth.net"

	baseQuery      = "mkt=en-GB&ur=gb&it=G,OS,BF,RL&og=2196&n=t&o=webp,95&cstl=s23"
	satelliteQuery = "g=13555&n=z&prx=1"
)

var ErrMissingCredential = errors.New("map credential is required")

type MissingCredentialError struct {
	Kind entity.Kind
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("provider: %s tile url: %v", e.Kind, ErrMissingCredential)
}

func (e *MissingCredentialError) Unwrap() error {
	return ErrMissingCredential
}

type Builder struct {
	credential   string
	baseURL      string
	satelliteURL string
}

type Option func(*Builder)

// WithBaseURL overrides scheme and host of base tile URLs.
func WithBaseURL(u string) Option {
	return func(b *Builder) {
		if u != "" {
			b.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithSatelliteURL overrides scheme and host of satellite tile URLs.
func WithSatelliteURL(u string) Option {
	return func(b *Builder) {
		if u != "" {
			b.satelliteURL = strings.TrimRight(u, "/")
		}
	}
}

func NewBuilder(credential string, opts ...Option) *Builder {
	b := &Builder{
		credential:   credential,
		baseURL:      DefaultBaseURL,
		satelliteURL: DefaultSatelliteURL,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuildURL returns the upstream URL of tile (x, y) using the default hosts.
func BuildURL(x, y int, kind entity.Kind, credential string) (string, error) {
	return NewBuilder(credential).URL(x, y, kind)
}

func (b *Builder) URL(x, y int, kind entity.Kind) (string, error) {
	return b.QuadKeyURL(quadkey.Encode(x, y), kind)
}

func (b *Builder) QuadKeyURL(qk string, kind entity.Kind) (string, error) {
	switch kind {
	case entity.KindBase:
		if b.credential == "" {
			return "", &MissingCredentialError{Kind: kind}
		}
		return fmt.Sprintf("%s/comp/ch/%s?%s&key=%s", b.baseURL, qk, baseQuery, url.QueryEscape(b.credential)), nil
	case entity.KindSatellite:
		return fmt.Sprintf("%s/tiles/a%s.jpeg?%s", b.satelliteURL, qk, satelliteQuery), nil
	default:
		return "", fmt.Errorf("provider: %w: %v", entity.ErrUnknownKind, kind)
	}
}
