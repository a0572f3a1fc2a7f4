package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Store     Store     `envPrefix:"STORE_"`
		Prefetch  Prefetch  `envPrefix:"PREFETCH_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
	}

	Server struct {
		Host         string        `env:"HOST" envDefault:"localhost"`
		Port         string        `env:"PORT" envDefault:"3000"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		Format string `env:"FORMAT" envDefault:"console"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"quadtiles"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Upstream struct {
		MapKey       string        `env:"MAP_KEY"`
		BaseURL      string        `env:"BASE_URL" envDefault:"https://t.ssl.ak.dynamic.tiles.virtualearth.net"`
		SatelliteURL string        `env:"SATELLITE_URL" envDefault:"https://t.ssl.ak.tiles.virtualearth.net"`
		Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s"`
		UserAgent    string        `env:"USER_AGENT" envDefault:"quadtiles/1.0"`
	}

	Store struct {
		Backend    string `env:"BACKEND" envDefault:"filesystem"`
		Dir        string `env:"DIR" envDefault:"./public"`
		SQLitePath string `env:"SQLITE_PATH" envDefault:"tiles.db"`
		Redis      Redis  `envPrefix:"REDIS_"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}

	Prefetch struct {
		OriginLat *float64 `env:"ORIGIN_LAT"`
		OriginLon *float64 `env:"ORIGIN_LON"`
		Radius    int      `env:"RADIUS" envDefault:"12"`
		Kinds     []string `env:"KINDS" envDefault:"os,sat" envSeparator:","`
		Workers   int      `env:"WORKERS" envDefault:"4"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// HasOrigin reports whether both origin coordinates were configured.
func (p Prefetch) HasOrigin() bool {
	return p.OriginLat != nil && p.OriginLon != nil
}
