// Package scorer parses scorer service flags and launches the service.
package scorer

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/louisbranch/courtside/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/courtside/internal/platform/grpc"
	"github.com/louisbranch/courtside/internal/platform/timeouts"
	server "github.com/louisbranch/courtside/internal/services/scoring/app"
)

// DotEnvFile is merged into the environment before config is parsed.
const DotEnvFile = ".env"

// Config holds scorer command configuration.
type Config struct {
	HTTPAddr    string   `env:"COURTSIDE_SCORER_HTTP_ADDR" envDefault:":8095"`
	HealthPort  int      `env:"COURTSIDE_SCORER_HEALTH_PORT" envDefault:"8096"`
	Store       string   `env:"COURTSIDE_SCORER_STORE" envDefault:"file"`
	SessionID   string   `env:"COURTSIDE_SCORER_SESSION_ID" envDefault:"default"`
	DataDir     string   `env:"COURTSIDE_SCORER_DATA_DIR" envDefault:"data"`
	PostgresDSN string   `env:"COURTSIDE_SCORER_POSTGRES_DSN"`
	RedisURL    string   `env:"COURTSIDE_SCORER_REDIS_URL"`
	RedisPrefix string   `env:"COURTSIDE_SCORER_REDIS_PREFIX" envDefault:"courtside"`
	S3Bucket    string   `env:"COURTSIDE_SCORER_S3_BUCKET"`
	S3Prefix    string   `env:"COURTSIDE_SCORER_S3_PREFIX" envDefault:"sessions"`
	S3Region    string   `env:"COURTSIDE_SCORER_S3_REGION"`
	Seed        int64    `env:"COURTSIDE_SCORER_SEED"`
	CORSOrigins []string `env:"COURTSIDE_SCORER_CORS_ORIGINS" envSeparator:","`
	AccessLog   bool     `env:"COURTSIDE_SCORER_ACCESS_LOG" envDefault:"true"`

	// Probe checks a running scorer's health endpoint instead of serving.
	Probe bool
}

// ParseConfig parses .env, environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg, DotEnvFile); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "The scorer HTTP listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The scorer gRPC health port")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Snapshot store: file, sqlite, postgres, redis or s3")
	fs.StringVar(&cfg.SessionID, "session", cfg.SessionID, "Session id to serve")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for file and sqlite stores")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Pairing seed; 0 picks a random one")
	fs.BoolVar(&cfg.Probe, "probe", false, "Check the local health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig maps command config onto the server's.
func (c Config) ServerConfig() server.Config {
	return server.Config{
		HTTPAddr:    c.HTTPAddr,
		HealthAddr:  fmt.Sprintf(":%d", c.HealthPort),
		Store:       c.Store,
		SessionID:   c.SessionID,
		DataDir:     c.DataDir,
		PostgresDSN: c.PostgresDSN,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
		S3Bucket:    c.S3Bucket,
		S3Prefix:    c.S3Prefix,
		S3Region:    c.S3Region,
		Seed:        c.Seed,
		CORSOrigins: c.CORSOrigins,
		AccessLog:   c.AccessLog,
	}
}

// Run starts the scorer HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	options := entrypoint.RunOptions{ShutdownTimeout: timeouts.Shutdown}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceScorer, options, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig())
	})
}

// ProbeTimeout bounds a health probe.
const ProbeTimeout = 3 * time.Second

// Probe waits for the scorer on the configured health port to report
// SERVING.
func Probe(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.HealthPort)
	return platformgrpc.Probe(ctx, addr, server.HealthServiceName, log.Printf)
}
