// Command campus-monopoly runs the two-player UMD campus Monopoly game.
//
// Commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server, reusing a running API or starting an internal one
//  3. "play" plays one game against the CPU in the terminal
//  4. "simulate" plays CPU vs CPU games and prints a summary
//
// Settings come from the environment (and an optional .env file); flags
// override them per command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/campus-monopoly/api"
	"github.com/wricardo/campus-monopoly/game/config"
	"github.com/wricardo/campus-monopoly/game/service"
	"github.com/wricardo/campus-monopoly/game/session"
	"github.com/wricardo/campus-monopoly/transport/mcp"
	"github.com/wricardo/campus-monopoly/transport/websocket"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Campus Monopoly Server"
)

const (
	sessionCleanupInterval = time.Hour
	filesystemSyncInterval = 5 * time.Second
	shutdownTimeout        = 10 * time.Second
)

func main() {
	// A missing .env file is fine
	envErr := godotenv.Load()

	cfg, err := loadAppConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := newApp(cfg)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", envErr)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Flag defaults are the environment values.
func newApp(cfg AppConfig) *cli.Command {
	logFlags := []cli.Flag{
		&cli.StringFlag{Name: "config-dir", Value: cfg.ConfigsDir, Usage: "directory containing board configurations"},
		&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "log level (debug, info, warn, error)"},
		&cli.BoolFlag{Name: "debug", Usage: "enable development logging at debug level"},
	}
	storeFlags := []cli.Flag{
		&cli.StringFlag{Name: "sessions-dir", Value: cfg.SessionsDir, Usage: "directory for file session storage"},
		&cli.StringFlag{Name: "store", Value: cfg.Store, Usage: "session store: file or sqlite"},
		&cli.StringFlag{Name: "db-path", Value: cfg.DBPath, Usage: "sqlite database path when --store=sqlite"},
		&cli.StringFlag{Name: "saves-dir", Value: cfg.SavesDir, Usage: "directory for game snapshots"},
	}
	httpFlags := []cli.Flag{
		&cli.StringFlag{Name: "host", Value: cfg.Host, Usage: "HTTP server host"},
		&cli.IntFlag{Name: "port", Value: cfg.Port, Usage: "HTTP server port"},
	}
	ngrokFlags := []cli.Flag{
		&cli.BoolFlag{Name: "ngrok", Value: cfg.NgrokEnabled, Usage: "expose the server through an ngrok tunnel"},
		&cli.StringFlag{Name: "ngrok-auth", Value: cfg.NgrokAuthToken, Usage: "ngrok auth token (or NGROK_AUTHTOKEN)"},
		&cli.StringFlag{Name: "ngrok-domain", Value: cfg.NgrokDomain, Usage: "custom ngrok domain"},
	}

	serverAction := func(ctx context.Context, cmd *cli.Command) error {
		settings, logger, err := setup(cfg, cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()
		return runHTTPServer(ctx, settings, logger)
	}

	return &cli.Command{
		Name:    "campus-monopoly",
		Usage:   "two-player UMD campus Monopoly",
		Version: Version,
		// without a command the server runs on the environment settings
		Action: serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags:   concatFlags(logFlags, storeFlags, httpFlags, ngrokFlags),
				Action:  serverAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server backed by the REST API",
				Flags: concatFlags(logFlags, storeFlags, []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: cfg.APIURL, Usage: "REST API to reuse when it is reachable"},
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, logger, err := setup(cfg, cmd)
					if err != nil {
						return err
					}
					defer logger.Sync()
					return runStdioMCPWithInternalServer(ctx, settings, logger)
				},
			},
			{
				Name:  "play",
				Usage: "play against the CPU in the terminal",
				Flags: concatFlags(logFlags, []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "board configuration name (default board when empty)"},
					&cli.StringFlag{Name: "name", Value: "Player 1", Usage: "your player name"},
					&cli.Int64Flag{Name: "seed", Usage: "dice seed (random when 0)"},
					&cli.StringFlag{Name: "record", Usage: "player record file to load and update"},
					&cli.StringFlag{Name: "saves-dir", Value: cfg.SavesDir, Usage: "directory for the final snapshot"},
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, logger, err := setup(cfg, cmd)
					if err != nil {
						return err
					}
					defer logger.Sync()
					return runPlay(ctx, settings, logger, os.Stdin, os.Stdout, playOptions{
						ConfigName: cmd.String("config"),
						Name:       cmd.String("name"),
						Seed:       cmd.Int64("seed"),
						RecordPath: cmd.String("record"),
					})
				},
			},
			{
				Name:  "simulate",
				Usage: "play CPU vs CPU games and summarize the results",
				Flags: concatFlags(logFlags, []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "board configuration name (default board when empty)"},
					&cli.IntFlag{Name: "games", Value: 100, Usage: "number of games to play"},
					&cli.Int64Flag{Name: "seed", Usage: "seed of the first game (random when 0)"},
					&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON"},
				}),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, logger, err := setup(cfg, cmd)
					if err != nil {
						return err
					}
					defer logger.Sync()
					return runSimulate(ctx, settings, logger, os.Stdout, simulateOptions{
						ConfigName: cmd.String("config"),
						Games:      int(cmd.Int("games")),
						Seed:       cmd.Int64("seed"),
						JSON:       cmd.Bool("json"),
					})
				},
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

func concatFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// setup applies the command's flags over the environment settings and
// builds the logger
func setup(cfg AppConfig, cmd *cli.Command) (AppConfig, *zap.SugaredLogger, error) {
	settings := withFlags(cfg, cmd)
	if err := settings.Validate(); err != nil {
		return AppConfig{}, nil, err
	}
	logger, err := newLogger(settings.LogLevel, cmd.Bool("debug"))
	if err != nil {
		return AppConfig{}, nil, err
	}
	return settings, logger, nil
}

// withFlags copies every flag the user set into the settings
func withFlags(cfg AppConfig, cmd *cli.Command) AppConfig {
	strs := map[string]*string{
		"config-dir":   &cfg.ConfigsDir,
		"log-level":    &cfg.LogLevel,
		"sessions-dir": &cfg.SessionsDir,
		"store":        &cfg.Store,
		"db-path":      &cfg.DBPath,
		"saves-dir":    &cfg.SavesDir,
		"host":         &cfg.Host,
		"api-url":      &cfg.APIURL,
		"ngrok-auth":   &cfg.NgrokAuthToken,
		"ngrok-domain": &cfg.NgrokDomain,
	}
	for name, field := range strs {
		if cmd.IsSet(name) {
			*field = cmd.String(name)
		}
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("ngrok") {
		cfg.NgrokEnabled = cmd.Bool("ngrok")
	}
	return cfg
}

// services are the long-lived collaborators behind the API
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	close       func() error
}

// initializeServices wires the config manager, session store and game service.
// It loads persisted sessions; background routines are started by the caller.
func initializeServices(cfg AppConfig, logger *zap.SugaredLogger, opts ...service.Option) (*services, error) {
	configManager, err := config.NewManager(cfg.ConfigsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	svc := &services{close: func() error { return nil }}
	switch cfg.Store {
	case StoreSQLite:
		store, err := session.NewSQLitePersistence(cfg.DBPath, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite session store: %w", err)
		}
		svc.persistence = store
		svc.close = store.Close
	default:
		store, err := session.NewFilePersistence(cfg.SessionsDir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		svc.persistence = store
	}

	svc.sessions = session.NewManagerWithPersistence(svc.persistence)
	svc.sessions.SetLogger(logger.Named("session"))
	if err := svc.sessions.LoadPersistedSessions(); err != nil {
		logger.Warnw("failed to load persisted sessions", "error", err)
	}

	opts = append([]service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithSnapshotStore(session.NewSnapshotStore(cfg.SavesDir)),
	}, opts...)
	svc.game = service.NewGameService(svc.sessions, configManager, opts...)
	return svc, nil
}

// filesystemSyncRoutine drops in-memory sessions whose stored copy was
// removed behind the server's back
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(filesystemSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := syncWithStore(manager, persistence, logger); n > 0 {
				logger.Infow("store sync pruned orphaned sessions", "count", n)
			}
		}
	}
}

func syncWithStore(manager *session.Manager, persistence session.SessionPersistence, logger *zap.SugaredLogger) int {
	if persistence == nil {
		return 0
	}
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			logger.Debugw("pruned session from memory", "session", s.ID)
		}
	}
	return pruned
}

// mcpHandler serves JSON-RPC MCP messages over plain HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the API at the root and the MCP endpoint at /mcp
func newRouter(apiServer http.Handler, baseURL string) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub and /mcp endpoint until
// the process is interrupted. With ngrok enabled the same router is also
// served through a public tunnel.
func runHTTPServer(parent context.Context, cfg AppConfig, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	hub.SetLogger(logger.Named("ws"))
	go hub.Run(ctx)

	svc, err := initializeServices(cfg, logger, service.WithEventHook(hub.PublishEvent))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := svc.sessions.SaveAllSessions(); err != nil {
			logger.Warnw("failed to save sessions on shutdown", "error", err)
		}
		if err := svc.close(); err != nil {
			logger.Warnw("failed to close session store", "error", err)
		}
	}()

	svc.sessions.StartCleanup(ctx, sessionCleanupInterval, cfg.SessionMaxAge)
	go filesystemSyncRoutine(ctx, svc.sessions, svc.persistence, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	apiServer := api.NewServer(svc.game, hub, logger.Named("api"))
	mainRouter := newRouter(apiServer, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Infow("HTTP server listening",
			"version", Version,
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter, logger.Named("ngrok"))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

// runNgrokTunnel serves handler through ngrok until ctx is done
func runNgrokTunnel(ctx context.Context, cfg AppConfig, handler http.Handler, logger *zap.SugaredLogger) {
	if cfg.NgrokAuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.Infow("using custom ngrok domain", "domain", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		logger.Errorw("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warnw("failed to close ngrok tunnel", "error", err)
		}
	}()

	url := tun.URL()
	logger.Infow("ngrok tunnel established",
		"url", url,
		"api", url+"/api",
		"websocket", url+"/ws?session=<session_id>",
		"mcp", url+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Errorw("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// apiReachable reports whether a campus-monopoly API answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on a random loopback port and returns its base URL
func startInternalAPI(ctx context.Context, cfg AppConfig, logger *zap.SugaredLogger) (string, func(), error) {
	hub := websocket.NewHub()
	hub.SetLogger(logger.Named("ws"))
	go hub.Run(ctx)

	svc, err := initializeServices(cfg, logger, service.WithEventHook(hub.PublishEvent))
	if err != nil {
		return "", nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		svc.close()
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	addr := listener.Addr().String()

	httpServer := &http.Server{Handler: api.NewServer(svc.game, hub, logger.Named("api"))}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("internal HTTP server error", "error", err)
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		if err := svc.sessions.SaveAllSessions(); err != nil {
			logger.Warnw("failed to save sessions on shutdown", "error", err)
		}
		svc.close()
	}
	logger.Infow("internal HTTP server started for MCP stdio", "addr", addr)
	return "http://" + addr, shutdown, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at cfg.APIURL when one answers, otherwise it starts an internal API on a
// loopback port and targets that.
func runStdioMCPWithInternalServer(parent context.Context, cfg AppConfig, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := cfg.APIURL
	if apiReachable(baseURL) {
		logger.Infow("external API server found, using it for MCP", "url", baseURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")
		url, shutdown, err := startInternalAPI(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = url
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Infow("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
