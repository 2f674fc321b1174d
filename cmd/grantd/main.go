// grantd is the OAuth2 token service: a single /token endpoint backed by
// the grant engine, plus the expired-token sweeper.
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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/grantd/internal/authn"
	"github.com/dropDatabas3/grantd/internal/cache"
	cachememory "github.com/dropDatabas3/grantd/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/grantd/internal/cache/redis"
	"github.com/dropDatabas3/grantd/internal/config"
	httpserver "github.com/dropDatabas3/grantd/internal/http"
	"github.com/dropDatabas3/grantd/internal/http/handlers"
	"github.com/dropDatabas3/grantd/internal/oauth2"
	"github.com/dropDatabas3/grantd/internal/observability/logger"
	"github.com/dropDatabas3/grantd/internal/rate"
	"github.com/dropDatabas3/grantd/internal/store/memory"
	"github.com/dropDatabas3/grantd/internal/store/pg"
	"github.com/dropDatabas3/grantd/internal/tasks"

	"github.com/dropDatabas3/grantd/internal/domain/repository"
)

var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "grantd",
		Short:         "OAuth2 token service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "ruta del YAML de configuración (opcional)")

	root.AddCommand(
		serveCmd(&cfgPath),
		sweepCmd(&cfgPath),
		migrateCmd(&cfgPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP y el sweeper de tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			initLogger(cfg)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, pinger, closeStore, err := buildStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			engine := oauth2.NewEngine(store, buildRegistry(cfg), oauth2.NewTokenService(time.Now))

			router := httpserver.NewRouter(httpserver.RouterDeps{
				Engine:  engine,
				Pinger:  pinger,
				Limiter: buildLimiter(cfg),
			})
			srv := httpserver.NewServer(cfg.Server.Addr, router)

			sweeper := tasks.NewTokenCleanup(store,
				config.MustDuration(cfg.Cleanup.Interval),
				config.MustDuration(cfg.Cleanup.Buffer),
				time.Now)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.L().Info("http server listening", logger.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				sweeper.Run(gctx)
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

func sweepCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Ejecuta una pasada del sweeper y termina",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			initLogger(cfg)
			defer func() { _ = logger.Sync() }()

			store, _, closeStore, err := buildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			sweeper := tasks.NewTokenCleanup(store, 0,
				config.MustDuration(cfg.Cleanup.Buffer), time.Now)
			n, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			logger.L().Info("sweep finished", logger.Count(n))
			return nil
		},
	}
}

func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema de PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			initLogger(cfg)
			defer func() { _ = logger.Sync() }()

			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate: storage driver %q has no schema", cfg.Storage.Driver)
			}
			st, err := pg.New(cmd.Context(), cfg.Storage.DSN, pgConfig(cfg))
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.InitSchema(cmd.Context()); err != nil {
				return err
			}
			logger.L().Info("schema applied")
			return nil
		},
	}
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "grantd",
		Version:     version,
	})
}

func pgConfig(cfg *config.Config) pg.Config {
	out := pg.Config{
		MaxConns: int32(cfg.Storage.Postgres.MaxOpenConns),
		MinConns: int32(cfg.Storage.Postgres.MaxIdleConns),
	}
	if s := cfg.Storage.Postgres.ConnMaxLifetime; s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			out.ConnMaxLifetime = d
		}
	}
	return out
}

func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, handlers.Pinger, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.New(ctx, cfg.Storage.DSN, pgConfig(cfg))
		if err != nil {
			return nil, nil, nil, err
		}
		return st, st, st.Close, nil
	default:
		return memory.New(), nil, func() {}, nil
	}
}

func buildCache(cfg *config.Config) cache.Cache {
	if cfg.Cache.Kind == "redis" {
		return cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
	}
	return cachememory.New(config.MustDuration(cfg.Cache.Memory.DefaultTTL))
}

func buildLimiter(cfg *config.Config) rate.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	window := config.MustDuration(cfg.RateLimit.Window)
	if cfg.Cache.Kind == "redis" {
		c := cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		return rate.NewRedisLimiter(c.Client(), cfg.Cache.Redis.Prefix+"rl:", cfg.RateLimit.Max, window)
	}
	return rate.NewMemoryLimiter(cfg.RateLimit.Max, window)
}

func buildRegistry(cfg *config.Config) *authn.Registry {
	states := authn.NewStateStore(buildCache(cfg),
		[]byte(cfg.Federated.StateSecret),
		config.MustDuration(cfg.Federated.StateTTL))
	return authn.NewRegistry(authn.Deps{
		HTTPClient: authn.DefaultHTTPClient(),
		States:     states,
	})
}
