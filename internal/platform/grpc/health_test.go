package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const testService = "courtside.test.v1.Probe"

type healthFixture struct {
	addr   string
	health *health.Server
}

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) healthFixture {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	grpcServer := gogrpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", status)
	healthServer.SetServingStatus(testService, status)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	t.Cleanup(func() {
		grpcServer.GracefulStop()
		select {
		case <-serveErr:
		case <-time.After(2 * time.Second):
		}
	})
	return healthFixture{addr: listener.Addr().String(), health: healthServer}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  grpc_health_v1.HealthCheckResponse_ServingStatus
		service string
		wantErr bool
	}{
		{name: "serving overall", status: grpc_health_v1.HealthCheckResponse_SERVING},
		{name: "serving named", status: grpc_health_v1.HealthCheckResponse_SERVING, service: testService},
		{name: "not serving", status: grpc_health_v1.HealthCheckResponse_NOT_SERVING, wantErr: true},
		{name: "unknown service", status: grpc_health_v1.HealthCheckResponse_SERVING, service: "missing.v1.Nothing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := startHealthServer(t, tt.status)
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			var attempts int
			err := Probe(ctx, fx.addr, tt.service, func(string, ...any) { attempts++ })
			if tt.wantErr && err == nil {
				t.Fatal("expected probe error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("probe: %v", err)
			}
			if tt.wantErr && attempts == 0 {
				t.Fatal("expected waiting attempts to be logged")
			}
		})
	}
}

func TestWaitForHealthTransitionsToServing(t *testing.T) {
	fx := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	go func() {
		time.Sleep(200 * time.Millisecond)
		fx.health.SetServingStatus(testService, grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := Probe(ctx, fx.addr, testService, nil); err != nil {
		t.Fatalf("probe after transition: %v", err)
	}
}

func TestWaitForHealthRejectsNilConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected nil connection error")
	}
}
