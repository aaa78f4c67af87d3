// Package server wires the scoring runtime: snapshot storage, the JSON HTTP
// API and the gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/courtside/internal/platform/id"
	"github.com/louisbranch/courtside/internal/platform/random"
	"github.com/louisbranch/courtside/internal/platform/timeouts"
	"github.com/louisbranch/courtside/internal/services/scoring/api/httpapi"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/session"
	"github.com/louisbranch/courtside/internal/services/scoring/service"
	"github.com/louisbranch/courtside/internal/services/scoring/storage"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/filestore"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/postgres"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/redisstore"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/s3store"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/sqlite"
)

// Snapshot store backends.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreS3       = "s3"
)

// HealthServiceName is the service name reported on the gRPC health endpoint.
const HealthServiceName = "courtside.scoring.v1.ScoringService"

// Config holds everything the scoring server needs to start.
type Config struct {
	HTTPAddr    string
	HealthAddr  string
	Store       string
	SessionID   string
	DataDir     string
	PostgresDSN string
	RedisURL    string
	RedisPrefix string
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	Seed        int64
	CORSOrigins []string
	AccessLog   bool
}

// Server hosts the scoring HTTP API and the gRPC health service.
type Server struct {
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	repo           *storage.Repository
	seed           int64
}

// New opens the store, loads the session and binds both listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	seed, err := random.ResolveSeed(cfg.Seed)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(store)

	engine := session.NewEngine(random.NewRand(seed), id.Generator(), nil)
	loadCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOperation)
	svc, err := service.Open(loadCtx, repo, engine, cfg.SessionID)
	cancel()
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = repo.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
	}

	httpServer := &http.Server{
		Handler: httpapi.NewRouter(svc, httpapi.Options{
			CORSOrigins: cfg.CORSOrigins,
			Logger:      cfg.AccessLog,
		}),
		ReadHeaderTimeout: timeouts.ReadHeader,
		WriteTimeout:      timeouts.Request + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		httpListener:   httpListener,
		httpServer:     httpServer,
		healthListener: healthListener,
		grpcServer:     grpcServer,
		health:         healthServer,
		repo:           repo,
		seed:           seed,
	}, nil
}

// Run creates and serves a scoring server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the gRPC health listener address.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Seed is the pairing seed in use. Logged at startup so a session can be
// replayed with COURTSIDE_SCORER_SEED.
func (s *Server) Seed() int64 {
	return s.seed
}

// Serve runs both listeners until ctx is cancelled or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("scoring http listening at %v", s.httpListener.Addr())
	log.Printf("scoring health listening at %v (pairing seed %d)", s.healthListener.Addr(), s.seed)

	httpErr := make(chan error, 1)
	grpcErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	go func() {
		grpcErr <- s.grpcServer.Serve(s.healthListener)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		httpErr <- err
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve http: %w", err)
		}
	case err := <-grpcErr:
		grpcErr <- err
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = fmt.Errorf("serve gRPC: %w", err)
		}
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown http: %w", err)
	}
	s.grpcServer.GracefulStop()

	if err := <-httpErr; runErr == nil && err != nil && !errors.Is(err, http.ErrServerClosed) {
		runErr = fmt.Errorf("serve http: %w", err)
	}
	if err := <-grpcErr; runErr == nil && err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		runErr = fmt.Errorf("serve gRPC: %w", err)
	}
	return runErr
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.healthListener != nil {
		_ = s.healthListener.Close()
	}
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			log.Printf("close scoring store: %v", err)
		}
		s.repo = nil
	}
}

func openStore(ctx context.Context, cfg Config) (storage.SnapshotStore, error) {
	dataDir := strings.TrimSpace(cfg.DataDir)
	if dataDir == "" {
		dataDir = "data"
	}
	openCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOperation)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case "", StoreFile:
		store, err := filestore.Open(filepath.Join(dataDir, "sessions"))
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return store, nil
	case StoreSQLite:
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		store, err := sqlite.Open(filepath.Join(dataDir, "scorer.db"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case StorePostgres:
		store, err := postgres.Open(openCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case StoreRedis:
		store, err := redisstore.Open(openCtx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	case StoreS3:
		store, err := s3store.Open(openCtx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s, %s, %s or %s)", cfg.Store, StoreFile, StoreSQLite, StorePostgres, StoreRedis, StoreS3)
	}
}
