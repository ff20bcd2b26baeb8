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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jengzang/spots-backend-go/internal/api"
	"github.com/jengzang/spots-backend-go/internal/catalog"
	"github.com/jengzang/spots-backend-go/internal/config"
	"github.com/jengzang/spots-backend-go/internal/database"
	"github.com/jengzang/spots-backend-go/internal/middleware"
	"github.com/jengzang/spots-backend-go/internal/models"
	"github.com/jengzang/spots-backend-go/internal/repository"
	"github.com/jengzang/spots-backend-go/internal/service"
	"github.com/jengzang/spots-backend-go/internal/session"
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

func main() {
	root := &cobra.Command{
		Use:           "spots",
		Short:         "Fishing spot discovery backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, initializes logging and opens the migrated database
func setup(ctx context.Context) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, nil, err
	}
	log := logger.Get()

	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	n, err := database.NewMigrationManager(database.GetDB()).RunMigrations(ctx)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info(ctx, "migrations done", logger.Int("applied", n))
	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			gin.SetMode(gin.ReleaseMode)
			m := metrics.NewManager()
			db := database.GetDB()
			cat := catalog.NewLocal(repository.NewSpotRepository(db), repository.NewHeatmapRepository(db))

			manager := session.NewManager(service.NewMapFactory(cat, cfg, log, m),
				session.WithTTL(cfg.SessionTTL()),
				session.WithLogger(log.Named("session")),
				session.WithMetrics(m),
			)
			defer manager.Close()

			limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow())
			defer limiter.Stop()

			router := api.SetupRouter(api.Deps{
				Config:    cfg,
				Logger:    log,
				Metrics:   m,
				Limiter:   limiter,
				Discovery: service.NewDiscoveryService(cat),
				Sessions:  service.NewSessionService(manager, log.Named("session")),
			})

			srv := &http.Server{Addr: cfg.Addr, Handler: router}
			errCh := make(chan error, 1)
			go func() {
				log.Info(ctx, "server starting", logger.String("addr", cfg.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info(context.Background(), "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			return database.Close()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import techniques, species, spots and catches from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			var seed models.SeedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}

			ctx := cmd.Context()
			_, log, err := setup(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := repository.NewSeedRepository(database.GetDB()).Import(ctx, seed)
			if err != nil {
				return err
			}
			log.Info(ctx, "seed imported",
				logger.Int("techniques", res.Techniques),
				logger.Int("species", res.Species),
				logger.Int("spots", res.Spots),
				logger.Int("catches", res.Catches),
			)
			return nil
		},
	}
}
