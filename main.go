// Command klondike starts the Klondike solitaire server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (optionally a .env file) and can be
// overridden with flags: host/port, config directory, session storage,
// session TTL, debug logging, and optional ngrok tunneling for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/klondike/api"
	"github.com/wricardo/klondike/game/config"
	"github.com/wricardo/klondike/game/service"
	"github.com/wricardo/klondike/game/session"
	"github.com/wricardo/klondike/transport/mcp"
	"github.com/wricardo/klondike/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Klondike Solitaire Server"
)

// Session storage backends
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// serverConfig is read from the environment first; flags override it.
type serverConfig struct {
	Host        string        `env:"HOST" envDefault:"localhost"`
	Port        int           `env:"PORT" envDefault:"8080"`
	ConfigDir   string        `env:"CONFIG_DIR" envDefault:"configs"`
	Storage     string        `env:"STORAGE" envDefault:"file"`
	SessionsDir string        `env:"SESSIONS_DIR" envDefault:"sessions"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"sessions.db"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Debug       bool          `env:"DEBUG"`
	ExternalAPI string        `env:"EXTERNAL_API" envDefault:"http://localhost:8080"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// loadServerConfig loads .env (if present) and parses the environment.
func loadServerConfig() (*serverConfig, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.NgrokAuthToken == "" {
		cfg.NgrokAuthToken = os.Getenv("NGROK_AUTH_TOKEN") // Also support underscore version
	}
	return &cfg, nil
}

func (c *serverConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// newApp builds the command line. Flag defaults are the environment values.
func newApp(cfg *serverConfig) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "host", Value: cfg.Host, Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Value: cfg.Port, Usage: "HTTP server port"},
		&cli.StringFlag{Name: "config-dir", Value: cfg.ConfigDir, Usage: "directory containing game configurations"},
		&cli.StringFlag{Name: "storage", Value: cfg.Storage, Usage: "session storage: file, sqlite or memory"},
		&cli.StringFlag{Name: "sessions-dir", Value: cfg.SessionsDir, Usage: "directory for file session storage"},
		&cli.StringFlag{Name: "sqlite-path", Value: cfg.SQLitePath, Usage: "database file for sqlite session storage"},
		&cli.DurationFlag{Name: "session-ttl", Value: cfg.SessionTTL, Usage: "drop sessions idle for longer than this"},
		&cli.BoolFlag{Name: "debug", Value: cfg.Debug, Usage: "enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Value: cfg.NgrokEnabled, Usage: "enable ngrok tunnel"},
		&cli.StringFlag{Name: "ngrok-auth", Value: cfg.NgrokAuthToken, Usage: "ngrok auth token (or NGROK_AUTHTOKEN)"},
		&cli.StringFlag{Name: "ngrok-domain", Value: cfg.NgrokDomain, Usage: "custom ngrok domain (optional)"},
	}

	run := func(mode string) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			applyFlags(cmd, cfg)
			return runMode(ctx, cfg, mode)
		}
	}

	return &cli.Command{
		Name:    "klondike",
		Usage:   AppName,
		Version: Version,
		Flags:   flags,
		Action:  run("server"),
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  run("server"),
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run MCP stdio server with internal HTTP server",
				Action:  run("stdio-mcp"),
			},
		},
	}
}

// applyFlags copies flag values over the environment defaults.
func applyFlags(cmd *cli.Command, cfg *serverConfig) {
	cfg.Host = cmd.String("host")
	cfg.Port = int(cmd.Int("port"))
	cfg.ConfigDir = cmd.String("config-dir")
	cfg.Storage = strings.ToLower(cmd.String("storage"))
	cfg.SessionsDir = cmd.String("sessions-dir")
	cfg.SQLitePath = cmd.String("sqlite-path")
	cfg.SessionTTL = cmd.Duration("session-ttl")
	cfg.Debug = cmd.Bool("debug")
	cfg.NgrokEnabled = cmd.Bool("ngrok")
	cfg.NgrokAuthToken = cmd.String("ngrok-auth")
	cfg.NgrokDomain = cmd.String("ngrok-domain")
}

func main() {
	cfg, err := loadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg).Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// runMode initializes services and starts the selected mode.
func runMode(ctx context.Context, cfg *serverConfig, mode string) error {
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s (mode: %s, storage: %s)", AppName, Version, mode, cfg.Storage)

	gameService, sessionManager, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := sessionManager.Close(); err != nil {
			log.Printf("Warning: Failed to flush sessions: %v", err)
		}
	}()

	if mode == "stdio-mcp" {
		return runStdioMCPWithInternalServer(ctx, cfg, gameService)
	}
	return runHTTPServer(ctx, cfg, gameService)
}

// newPersistence opens the session store selected by cfg.Storage. The
// memory backend has no store and returns nil.
func newPersistence(cfg *serverConfig, configs service.ConfigManager) (session.SessionPersistence, error) {
	switch cfg.Storage {
	case StorageFile, "":
		return session.NewFilePersistence(cfg.SessionsDir, configs)
	case StorageSQLite:
		return session.NewSQLitePersistence(cfg.SQLitePath, configs)
	case StorageMemory:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown storage %q (use %s, %s or %s)", cfg.Storage, StorageFile, StorageSQLite, StorageMemory)
}

// initializeServices wires session/config managers and the game service.
// It also starts background routines that prune stale sessions; they stop
// with ctx.
func initializeServices(ctx context.Context, cfg *serverConfig) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := newPersistence(cfg, configManager)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	var sessionManager *session.Manager
	if persistence == nil {
		sessionManager = session.NewManager()
	} else {
		sessionManager = session.NewManagerWithPersistence(persistence)
		if err := sessionManager.LoadPersistedSessions(); err != nil {
			log.Printf("Warning: Failed to load persisted sessions: %v", err)
		}
	}

	gameService := service.NewGameService(sessionManager, configManager)

	go sessionCleanupRoutine(ctx, sessionManager, cfg.SessionTTL)
	if cfg.Storage == StorageFile {
		go filesystemSyncRoutine(ctx, sessionManager, persistence)
	}

	return gameService, sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	interval := min(time.Hour, ttl)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory when their file has been
// deleted from the sessions directory.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if pruned := pruneOrphans(manager, persistence); pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
		}
	}
}

func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if !persistence.Exists(s.ID) {
			if err := manager.DeleteFromMemory(s.ID); err == nil {
				pruned++
				log.Printf("Pruned session %s from memory (file deleted)", s.ID)
			}
		}
	}
	return pruned
}

// newHandler mounts the REST API at the root and the MCP JSON-RPC endpoint
// at /mcp.
func newHandler(gameService service.GameService, hub *websocket.Hub, mcpClient *mcp.Client) http.Handler {
	apiServer := api.NewServer(gameService, hub)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub, and /mcp proxy endpoint
// until ctx is cancelled. If ngrok is enabled, it also provisions a public
// tunnel.
func runHTTPServer(ctx context.Context, cfg *serverConfig, gameService service.GameService) error {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	addr := cfg.addr()
	mcpClient := mcp.NewClient("http://" + addr)
	handler := newHandler(gameService, hub, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Printf("Shutting down...")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends.
func runNgrokTunnel(ctx context.Context, cfg *serverConfig, handler http.Handler) {
	if cfg.NgrokAuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalAPIAvailable reports whether a Klondike API answers at baseURL.
func externalAPIAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port and
// returns its base URL. The server stops when ctx is cancelled.
func startInternalAPI(ctx context.Context, gameService service.GameService) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
		hub.Stop()
	}()

	return "http://" + listener.Addr().String(), nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an
// external API when one answers; otherwise it starts an internal one.
func runStdioMCPWithInternalServer(ctx context.Context, cfg *serverConfig, gameService service.GameService) error {
	baseURL := cfg.ExternalAPI
	log.Printf("Checking for external API server at %s...", baseURL)

	if externalAPIAvailable(ctx, baseURL) {
		log.Printf("External API server found at %s, using it for MCP", baseURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")
		internalURL, err := startInternalAPI(ctx, gameService)
		if err != nil {
			return err
		}
		baseURL = internalURL
		log.Printf("Internal HTTP server for MCP stdio on %s", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	// Logs go to stderr; stdout carries the protocol
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
