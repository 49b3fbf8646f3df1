package gameserver_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cory-johannsen/overstack/internal/game/npc"
	"github.com/cory-johannsen/overstack/internal/game/run"
	"github.com/cory-johannsen/overstack/internal/gameserver"
	"github.com/cory-johannsen/overstack/internal/storage"
	"github.com/cory-johannsen/overstack/internal/storage/sqlite"
)

type testEnv struct {
	client *gameserver.SimulationClient
	conn   *grpc.ClientConn
	logs   *observer.ObservedLogs
}

func sqliteArchive(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// startServer serves a SimulationServer over an in-memory listener.
func startServer(t *testing.T, opts gameserver.Options) *testEnv {
	t.Helper()
	catalog, err := npc.LoadEmbedded()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	opts.Logger = logger

	svc := gameserver.NewSimulationServer(run.NewRegistry(catalog, logger), opts)
	srv, _ := gameserver.NewGRPCServer(svc, logger)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{client: gameserver.NewSimulationClient(conn), conn: conn, logs: logs}
}

func (e *testEnv) call(t *testing.T, method string, req map[string]any) map[string]any {
	t.Helper()
	out, err := e.client.Call(context.Background(), method, req)
	require.NoError(t, err)
	return out.AsMap()
}

func (e *testEnv) create(t *testing.T, req map[string]any) float64 {
	t.Helper()
	out := e.call(t, gameserver.MethodCreateRun, req)
	return out["handle"].(float64)
}

func linesOf(v any) []string {
	list, _ := v.([]any)
	out := make([]string, len(list))
	for i, l := range list {
		out[i] = l.(string)
	}
	return out
}

// failingArchive rejects every save.
type failingArchive struct {
	storage.RunArchive
	err error
}

func (f failingArchive) SaveRun(context.Context, storage.RunRecord) error { return f.err }

