package server

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/solatis/rulesynth/internal/core/api"
	"github.com/solatis/rulesynth/internal/core/auth"
	"github.com/solatis/rulesynth/internal/core/config"
	"github.com/solatis/rulesynth/internal/core/db"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testSecretID = "0123456789abcdef0123456789abcdef"

func startTestServer(t *testing.T) (*grpc.ClientConn, string) {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.MigrateUp(ctx, database); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		t.Fatal(err)
	}

	examples := db.NewExampleStore(queries)
	if err := examples.AddExample(ctx, "what is the weather", "now => @weather.current() => notify"); err != nil {
		t.Fatal(err)
	}

	authenticator := auth.NewAuthenticator(map[string][]byte{
		testSecretID: []byte("a-secret-that-is-at-least-32-bytes-long"),
	}, queries)
	issued, err := authenticator.IssueKey(ctx, "test-client", testSecretID)
	if err != nil {
		t.Fatalf("IssueKey() error = %v", err)
	}

	service, err := api.NewExactMatchService(examples, config.ExactConfig{MaxResults: 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := service.ReloadIndex(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig().Server
	cfg.Host, cfg.Port = "127.0.0.1", 0
	srv, err := NewGRPCServer(cfg, service, authenticator, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewGRPCServer() error = %v", err)
	}
	addr, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()
	t.Cleanup(func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("Start() error = %v", err)
		}
	})

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, issued.Key
}

func TestNewGRPCServer_Validation(t *testing.T) {
	cfg := config.DefaultConfig().Server
	if _, err := NewGRPCServer(cfg, nil, auth.NewAuthenticator(nil, nil), nil); err == nil {
		t.Error("expected error for nil service")
	}
	svc, _ := api.NewExactMatchService(nilSource{}, config.ExactConfig{})
	if _, err := NewGRPCServer(cfg, svc, nil, nil); err == nil {
		t.Error("expected error for nil authenticator")
	}
}

type nilSource struct{}

func (nilSource) ListExamples(context.Context) ([]db.Example, error) { return nil, nil }

func TestGRPCServer_RoundTrip(t *testing.T) {
	conn, key := startTestServer(t)
	client := api.NewExactMatchClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := client.Lookup(ctx, "what is the weather")
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("Lookup() code = %v, want Unauthenticated", status.Code(err))
		}
	})

	authed := metadata.AppendToOutgoingContext(ctx, "x-api-key", key)

	t.Run("lookup", func(t *testing.T) {
		resp, err := client.Lookup(authed, "What is the weather")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		fields := resp.GetFields()
		if !fields["found"].GetBoolValue() {
			t.Fatalf("Lookup() = %v", fields)
		}
		if got := fields["targets"].GetListValue().GetValues()[0].GetStringValue(); got != "now => @weather.current() => notify" {
			t.Errorf("target = %q", got)
		}
	})

	t.Run("invalid argument", func(t *testing.T) {
		_, err := client.Lookup(authed, "")
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("Lookup(empty) code = %v, want InvalidArgument", status.Code(err))
		}
	})

	t.Run("reload unchanged", func(t *testing.T) {
		resp, err := client.Reload(authed)
		if err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
		if resp.GetFields()["changed"].GetBoolValue() {
			t.Error("Reload() changed = true for unchanged store")
		}
	})

	t.Run("health without key", func(t *testing.T) {
		resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: api.ServiceName})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			t.Errorf("status = %v", resp.GetStatus())
		}
	})
}

func TestTimeoutInterceptor(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		deadline, ok = ctx.Deadline()
		return nil, nil
	}

	_, _ = timeoutInterceptor(time.Second)(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	if !ok || time.Until(deadline) > time.Second {
		t.Errorf("deadline = %v, %v", deadline, ok)
	}

	_, _ = timeoutInterceptor(0)(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	if ok {
		t.Error("zero timeout set a deadline")
	}
}
