package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv
}

func testConfig(t *testing.T, store string) Config {
	return Config{
		HTTPAddr:   "127.0.0.1:0",
		HealthAddr: "127.0.0.1:0",
		Store:      store,
		SessionID:  "default",
		DataDir:    t.TempDir(),
		Seed:       42,
	}
}

func TestServer_HTTPRoundTripPersists(t *testing.T) {
	for _, store := range []string{StoreFile, StoreSQLite} {
		t.Run(store, func(t *testing.T) {
			cfg := testConfig(t, store)
			srv := startServer(t, cfg)
			if srv.Seed() != 42 {
				t.Fatalf("seed = %d, want configured 42", srv.Seed())
			}
			base := "http://" + srv.Addr()

			for _, name := range []string{"Ann", "Bob", "Cid", "Dan"} {
				resp, err := http.Post(base+"/api/v1/players", "application/json", strings.NewReader(`{"name":"`+name+`"}`))
				if err != nil {
					t.Fatalf("add player: %v", err)
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusCreated {
					t.Fatalf("add player status = %d", resp.StatusCode)
				}
			}
			resp, err := http.Get(base + "/api/v1/modes/americano/layout")
			if err != nil {
				t.Fatalf("get layout: %v", err)
			}
			var layout struct {
				Courts []struct {
					A []string `json:"a"`
					B []string `json:"b"`
				} `json:"courts"`
			}
			err = json.NewDecoder(resp.Body).Decode(&layout)
			resp.Body.Close()
			if err != nil || len(layout.Courts) != 1 {
				t.Fatalf("layout = %+v, err = %v", layout, err)
			}
			body, err := json.Marshal(map[string]any{"courts": []map[string]any{{
				"a":     layout.Courts[0].A,
				"b":     layout.Courts[0].B,
				"score": map[string]int{"a": 6, "b": 3},
			}}})
			if err != nil {
				t.Fatalf("encode round: %v", err)
			}
			resp, err = http.Post(base+"/api/v1/modes/americano/rounds", "application/json", strings.NewReader(string(body)))
			if err != nil {
				t.Fatalf("commit round: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("commit status = %d", resp.StatusCode)
			}

			resp, err = http.Get(base + "/api/v1/session")
			if err != nil {
				t.Fatalf("get session: %v", err)
			}
			defer resp.Body.Close()
			var view struct {
				Players []json.RawMessage `json:"players"`
				Boards  map[string]struct {
					Totals map[string]int `json:"totals"`
				} `json:"boards"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
				t.Fatalf("decode session: %v", err)
			}
			if len(view.Players) != 4 {
				t.Fatalf("players = %d", len(view.Players))
			}
			sum := 0
			for _, v := range view.Boards["americano"].Totals {
				sum += v
			}
			if sum != 18 {
				t.Fatalf("americano totals sum = %d, want 18", sum)
			}
		})
	}
}

func TestServer_FileStoreWritesSnapshot(t *testing.T) {
	cfg := testConfig(t, StoreFile)
	srv := startServer(t, cfg)

	resp, err := http.Post("http://"+srv.Addr()+"/api/v1/players", "application/json", strings.NewReader(`{"name":"Ann"}`))
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	resp.Body.Close()

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "sessions", "default.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.Contains(string(data), `"Ann"`) {
		t.Fatalf("snapshot = %s", data)
	}
}

func TestServer_HealthServing(t *testing.T) {
	srv := startServer(t, testConfig(t, ""))

	conn, err := grpc.NewClient(srv.HealthAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health server: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close gRPC connection: %v", closeErr)
		}
	})

	client := grpc_health_v1.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range []string{"", HealthServiceName} {
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: name})
		if err != nil {
			t.Fatalf("health check %q: %v", name, err)
		}
		if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			t.Fatalf("health %q = %v", name, resp.GetStatus())
		}
	}
}

func TestOpenStoreRejectsUnknownAndIncompleteBackends(t *testing.T) {
	ctx := context.Background()
	tests := []Config{
		{Store: "mongo", DataDir: t.TempDir()},
		{Store: StorePostgres},
		{Store: StoreRedis},
	}
	for _, cfg := range tests {
		if store, err := openStore(ctx, cfg); err == nil {
			_ = store.Close()
			t.Fatalf("store %q: expected error", cfg.Store)
		}
	}
}

func TestNewRejectsInvalidSessionID(t *testing.T) {
	cfg := testConfig(t, StoreFile)
	cfg.SessionID = "../../etc"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected invalid session id error")
	}
}

func TestNilServer(t *testing.T) {
	var srv *Server
	if srv.Addr() != "" || srv.HealthAddr() != "" {
		t.Fatal("nil server should report empty addresses")
	}
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("expected nil server error")
	}
	srv.Close()
}
