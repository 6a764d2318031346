// Package main is the entry point of the fertpro server.
//
// main.go holds the command line; the init_*.go files wire the layers
// together: repositories, services, hub callbacks, handlers, routes. There
// are no globals, everything is built in runServe and passed down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edithfert/fertpro/config"
	"github.com/edithfert/fertpro/database"
	"github.com/edithfert/fertpro/middleware"
	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg/i18n"
	"github.com/edithfert/fertpro/pkg/ratelimit"
	"github.com/edithfert/fertpro/pkg/soilsim"
	"github.com/edithfert/fertpro/services"
	"github.com/edithfert/fertpro/web"
	"github.com/edithfert/fertpro/ws"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "fertpro",
		Short:        "Edith Fert Pro agricultural advisory server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP and WebSocket server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, configPath)
			},
		},
		&cobra.Command{
			Use:   "crops",
			Short: "List the crops recommendations are available for",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				for _, crop := range models.Crops() {
					fmt.Fprintln(cmd.OutOrStdout(), crop)
				}
			},
		},
	)
	return root
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	return zcfg.Build()
}

func runMigrate(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(cfg.Database.Path, database.MigrationsFS(), logger.Named("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrations()
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := i18n.Load(i18n.LocalesFS(), logger.Named("i18n")); err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	db, err := database.New(cfg.Database.Path, database.MigrationsFS(), logger.Named("database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repos := initRepositories(db.Conn)

	sim := soilsim.New(cfg.Simulate.SoilInterval())
	hub := ws.NewHub(sim, logger.Named("ws"))

	store := services.NewSessionStore(cfg.Session.TTL())
	defer store.Close()

	limiter := ratelimit.NewAuthLimiter(cfg.RateLimit.LoginMax, cfg.RateLimit.Window())
	defer limiter.Close()

	svcs := initServices(cfg, db, repos, store, sim, hub, logger)
	initCallbacks(hub, svcs, logger.Named("ws"))

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	h := initHandlers(cfg, svcs, hub, limiter, renderer, logger)
	sessionMw := middleware.NewSessionMiddleware(svcs.Session, cfg.Session.TTL(), logger.Named("session"))

	mux := http.NewServeMux()
	initRoutes(mux, h, sessionMw)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           corsHandler.Handler(middleware.RequestLogger(logger.Named("http"))(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// The server drains first; sockets are hijacked and not tracked by
	// Shutdown, so the hub closes them afterwards.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		hub.Shutdown()
		if err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
