package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/easybi/internal/config"
	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
	"github.com/rpggio/easybi/internal/mcp"
	"github.com/rpggio/easybi/internal/render"
	"github.com/rpggio/easybi/internal/sqlite"
	"github.com/rpggio/easybi/internal/transport"
)

const (
	Version = "0.1.0"
	appName = "easybi"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		if configPath == "" {
			configPath = os.Getenv("EASYBI_CONFIG_PATH")
		}
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		return run(cmd.Context(), cfg)
	}

	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Data exploration workshop server",
		Long:         "easybi imports one table per session and charts it on sheet tabs, over a JSON API and MCP tools.",
		SilenceUsage: true,
		RunE:         serve,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the server (default)",
		RunE:  serve,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return err
	}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	workshopSvc := workshop.NewService(
		sqlite.NewWorkspaceRepository(db),
		sqlite.NewDatasetRepository(db),
		activitySvc,
		logger,
	)
	importer := ingest.NewImporter(workshopSvc, activitySvc, ingest.Options{
		MaxRows:           cfg.Import.MaxRows,
		MaxBytes:          cfg.Import.MaxBytes,
		URLTimeout:        cfg.Import.URLTimeout,
		AllowPrivateHosts: cfg.Import.AllowPrivateHosts,
		SQLiteDir:         cfg.Import.SQLiteDir,
		DenyPaths:         []string{cfg.DB.Path},
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Workshop: workshopSvc,
			Imports:  importer,
			Activity: activitySvc,
		},
		Version: Version,
		Logger:  logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}

	httpCfg := transport.Config{
		Services: transport.Services{
			Workshop: workshopSvc,
			Imports:  importer,
			Activity: activitySvc,
			Renderer: render.New(),
		},
		MCPHandler: mcp.NewHTTPHandler(mcpServer),
		// Base64 inflates uploads by a third.
		MaxBodyBytes: cfg.Import.MaxBytes*4/3 + 1<<20,
		Logger:       logger,
	}
	if cfg.Auth.Enabled {
		httpCfg.AuthMiddleware = transport.AuthMiddleware(transport.NewStaticToken(cfg.Auth.Token))
	}
	return runHTTPMode(ctx, logger, transport.NewServer(httpCfg), cfg.Server.Host, cfg.Server.Port, cfg.Auth.Enabled)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, host string, port int, auth bool) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", auth)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
