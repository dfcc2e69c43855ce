package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathwise/pathwise/internal/api"
	"github.com/pathwise/pathwise/internal/app"
	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/rag"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var (
	serveCoursesDir string
	serveMigrate    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveCoursesDir, "courses", "", "directory of course JSON files (enables indexing routes)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending schema migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{JSON: true})
	logger.Info("starting HTTP API server", "version", AppVersion)

	opts := app.Options{Migrate: serveMigrate}
	if serveCoursesDir != "" {
		source, err := rag.NewFileSource(serveCoursesDir)
		if err != nil {
			return fmt.Errorf("opening course source: %w", err)
		}
		opts.CourseSource = source
	}

	a, err := app.Setup(ctx, cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	serverCfg := api.ServerConfig{
		Logger:            logger,
		Chat:              a.Service,
		Pool:              a.Pool,
		RequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
	}
	if a.Indexer != nil {
		serverCfg.Indexer = a.Indexer
	}

	apiServer, err := api.NewServer(serverCfg)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.ListenAddr,
		"api", "/api/v1/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
