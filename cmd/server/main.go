package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/booking-tenant-service/internal/api"
	"github.com/teresa-solution/booking-tenant-service/internal/cache"
	"github.com/teresa-solution/booking-tenant-service/internal/config"
	"github.com/teresa-solution/booking-tenant-service/internal/crypto"
	"github.com/teresa-solution/booking-tenant-service/internal/monitoring"
	"github.com/teresa-solution/booking-tenant-service/internal/service"
	"github.com/teresa-solution/booking-tenant-service/internal/store"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to YAML config file")
		envPath    = flag.String("env", ".env", "Path to dotenv file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.ConnectionString(), store.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	tenants := store.NewTenantRepository(db)
	defer tenants.Close()
	tenantData := store.NewTenantDataRepository(db)

	settingsCache, closeCache, err := newSettingsCache(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize settings cache")
	}
	defer closeCache()

	clk := clock.New()
	settings := service.NewSettingsStore(tenantData, settingsCache, clk, cfg.Cache.SettingsTTL)
	quotas := service.NewQuotaService(settings, tenantData, service.NewStaticPlanRegistry())
	horizon := service.NewHorizonValidator(quotas, settings, clk)
	catalog := service.NewCatalogReader(tenants)
	provisioning := service.NewProvisioningService(tenants, catalog, crypto.NewHasher(cfg.Provisioning.BcryptCost), clk)

	monitoring.InitMetrics(prometheus.DefaultRegisterer)

	handler := api.NewHandler(provisioning, quotas, horizon)
	apiServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Routes(log.Logger, cfg.Server.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("Starting Booking Tenant Service on %s", cfg.Server.Addr)
		return serve(apiServer)
	})
	g.Go(func() error {
		log.Info().Msgf("HTTP server for health checks and metrics started on %s", cfg.Server.MetricsAddr)
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exiting")
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupLogging(cfg config.Logging) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// newSettingsCache builds the configured snapshot cache and its closer.
func newSettingsCache(cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		c := cache.NewRedis(client, cfg.Redis.Prefix)
		return c, func() { c.Close() }, nil
	default:
		c, err := cache.NewRistretto(cfg.Cache.MaxTenants)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}
