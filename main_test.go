package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/klondike/transport/mcp"
	"github.com/wricardo/klondike/transport/websocket"
)

func testConfig(t *testing.T, storage string) *serverConfig {
	t.Helper()
	dir := t.TempDir()
	return &serverConfig{
		Host:        "localhost",
		Port:        8080,
		ConfigDir:   "configs",
		Storage:     storage,
		SessionsDir: filepath.Join(dir, "sessions"),
		SQLitePath:  filepath.Join(dir, "sessions.db"),
		SessionTTL:  24 * time.Hour,
	}
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Klondike Solitaire Server", AppName)
}

func TestLoadServerConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("NGROK_DOMAIN", "cards.example.dev")

	cfg, err := loadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "cards.example.dev", cfg.NgrokDomain)
	assert.NotEmpty(t, cfg.Host)
	assert.NotEmpty(t, cfg.ConfigDir)
}

func TestLoadServerConfig_BadValue(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := loadServerConfig()
	assert.Error(t, err)
}

func TestNewApp_FlagsOverrideEnvironment(t *testing.T) {
	cfg := testConfig(t, StorageFile)
	app := newApp(cfg)

	var mode string
	app.Action = func(ctx context.Context, cmd *cli.Command) error {
		applyFlags(cmd, cfg)
		mode = "server"
		return nil
	}

	err := app.Run(context.Background(), []string{"klondike", "--port", "9191", "--storage", "SQLite", "--session-ttl", "30m"})
	require.NoError(t, err)

	assert.Equal(t, "server", mode)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "localhost:9191", cfg.addr())
}

func TestNewApp_Subcommands(t *testing.T) {
	app := newApp(testConfig(t, StorageMemory))

	names := map[string]bool{}
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
		for _, alias := range cmd.Aliases {
			names[alias] = true
		}
	}
	for _, want := range []string{"server", "http", "stdio-mcp", "mcp-stdio", "mcp"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestInitializeServices(t *testing.T) {
	for _, storage := range []string{StorageFile, StorageSQLite, StorageMemory} {
		t.Run(storage, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			gameService, manager, err := initializeServices(ctx, testConfig(t, storage))
			require.NoError(t, err)
			require.NotNil(t, gameService)
			defer manager.Close()

			info, err := gameService.CreateSession(ctx, "practice")
			require.NoError(t, err)
			assert.NotEmpty(t, info.ID)
		})
	}
}

func TestInitializeServices_RestoresSQLiteSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t, StorageSQLite)

	first, manager, err := initializeServices(ctx, cfg)
	require.NoError(t, err)
	info, err := first.CreateSession(ctx, "practice")
	require.NoError(t, err)
	_, err = first.Draw(ctx, info.ID)
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	second, manager, err := initializeServices(ctx, cfg)
	require.NoError(t, err)
	defer manager.Close()

	state, err := second.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalMoves)
}

func TestInitializeServices_Errors(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, StorageMemory)
	cfg.ConfigDir = "/non/existent/path"
	_, _, err := initializeServices(ctx, cfg)
	assert.Error(t, err, "expected error for non-existent config directory")

	_, _, err = initializeServices(ctx, testConfig(t, "redis"))
	assert.ErrorContains(t, err, "unknown storage")
}

func TestPruneOrphans(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t, StorageFile)

	gameService, manager, err := initializeServices(ctx, cfg)
	require.NoError(t, err)
	defer manager.Close()

	kept, err := gameService.CreateSession(ctx, "practice")
	require.NoError(t, err)
	gone, err := gameService.CreateSession(ctx, "practice")
	require.NoError(t, err)

	persistence, err := newPersistence(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, persistence.Delete(gone.ID))

	assert.Equal(t, 1, pruneOrphans(manager, persistence))
	assert.Equal(t, 1, manager.Count())

	_, err = gameService.GetSession(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestNewHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, manager, err := initializeServices(ctx, testConfig(t, StorageMemory))
	require.NoError(t, err)
	defer manager.Close()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	ts := httptest.NewServer(newHandler(gameService, hub, mcp.NewClient("http://localhost:0")))
	defer ts.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/mcp")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("mcp initialize", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
		resp, err := http.Post(ts.URL+"/mcp", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var rpc struct {
			Result struct {
				ServerInfo struct {
					Name string `json:"name"`
				} `json:"serverInfo"`
			} `json:"result"`
		}
		require.NoError(t, json.Unmarshal(data, &rpc), string(data))
		assert.Equal(t, "Klondike Solitaire", rpc.Result.ServerInfo.Name)
	})

	t.Run("mcp lists tools", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`
		resp, err := http.Post(ts.URL+"/mcp", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		var rpc struct {
			Result struct {
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
			} `json:"result"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpc))

		names := map[string]bool{}
		for _, tool := range rpc.Result.Tools {
			names[tool.Name] = true
		}
		for _, want := range []string{"create_session", "click", "bulk_click", "hints"} {
			assert.True(t, names[want], "missing tool %s", want)
		}
	})
}

func TestExternalAPIAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	assert.True(t, externalAPIAvailable(context.Background(), ts.URL))
	assert.False(t, externalAPIAvailable(context.Background(), "http://127.0.0.1:1"))
}

func TestStartInternalAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, manager, err := initializeServices(ctx, testConfig(t, StorageMemory))
	require.NoError(t, err)
	defer manager.Close()

	baseURL, err := startInternalAPI(ctx, gameService)
	require.NoError(t, err)
	assert.True(t, externalAPIAvailable(ctx, baseURL))
}
