package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openshelf/openshelf/internal/adapter/auditlog"
	oshttp "github.com/openshelf/openshelf/internal/adapter/http"
	osnats "github.com/openshelf/openshelf/internal/adapter/nats"
	otelad "github.com/openshelf/openshelf/internal/adapter/otel"
	"github.com/openshelf/openshelf/internal/adapter/postgres"
	"github.com/openshelf/openshelf/internal/adapter/ristretto"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/domain/policy"
	"github.com/openshelf/openshelf/internal/domain/tenant"
	"github.com/openshelf/openshelf/internal/domain/user"
	"github.com/openshelf/openshelf/internal/feature"
	"github.com/openshelf/openshelf/internal/feature/covers"
	"github.com/openshelf/openshelf/internal/feature/natcat"
	"github.com/openshelf/openshelf/internal/logger"
	"github.com/openshelf/openshelf/internal/middleware"
	"github.com/openshelf/openshelf/internal/port/audit"
	"github.com/openshelf/openshelf/internal/port/database"
	"github.com/openshelf/openshelf/internal/service"
	"github.com/openshelf/openshelf/internal/tenancy"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to YAML config file")
	seed := flag.Bool("seed", false, "seed a demo tenant and super-admin, then exit")
	flag.Parse()

	if err := run(*configPath, *seed); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, seed bool) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"strict_subdomains", cfg.Tenancy.StrictSubdomains,
	)

	if cfg.Auth.SessionSecret == "" {
		cfg.Auth.SessionSecret = randomSecret()
		slog.Warn("no session secret configured, generated an ephemeral one; sessions will not survive restarts")
	}

	ctx := context.Background()

	// --- Telemetry ---
	shutdownTelemetry, err := otelad.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := otelad.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	store := postgres.NewStore(pool)

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	// Audit events go to JetStream when NATS is configured, otherwise they
	// stay in the structured log.
	var sink audit.Sink
	if cfg.NATS.URL != "" {
		queue, err := osnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		sink = queue
	} else {
		sink = auditlog.New(slog.Default())
	}
	sink = otelad.InstrumentSink(sink, metrics)

	// --- Tenancy and features ---
	directory := tenancy.NewDirectory(store, otelad.InstrumentCache(l1, metrics), cfg.Cache.TenantTTL)

	reg := feature.NewRegistry(sink)
	if err := registerFeatures(reg, cfg.Features); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	gate := feature.NewGate(reg)

	// --- Services ---
	authSvc := service.NewAuthService(store, &cfg.Auth)
	tenantSvc := service.NewTenantService(store, directory)
	catalogSvc := service.NewCatalogService(store, gate)

	if seed {
		return seedDemo(ctx, store, tenantSvc, authSvc)
	}

	// --- HTTP ---
	handlers := oshttp.NewHandlers(authSvc, tenantSvc, catalogSvc, gate)

	r := chi.NewRouter()
	r.Use(otelad.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestID)
	r.Use(middleware.Tenant(directory, metrics))
	r.Use(middleware.Auth(authSvc))
	r.Use(middleware.Access(policy.Policy{Strict: cfg.Tenancy.StrictSubdomains}, gate, sink, metrics))

	oshttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// registerFeatures binds the premium feature implementations. Each feature
// reads its license from <license_dir>/<feature_id>.json and is switched by
// its PREMIUM_<ID>_ENABLED environment variable.
func registerFeatures(reg *feature.Registry, cfg config.Features) error {
	descriptors := []feature.Descriptor{
		{
			ID:          covers.FeatureID,
			Name:        "Book cover lookup",
			Description: "Fetches cover image URLs by ISBN from an external cover API",
			License:     feature.FileLicense(filepath.Join(cfg.LicenseDir, covers.FeatureID+".json")),
			New: func() (feature.Implementation, error) {
				return covers.New(cfg.CoversBaseURL), nil
			},
		},
		{
			ID:           natcat.FeatureID,
			Name:         "National catalog metadata",
			Description:  "Looks up bibliographic metadata by ISBN in the national catalog",
			Dependencies: []string{covers.FeatureID},
			License:      feature.FileLicense(filepath.Join(cfg.LicenseDir, natcat.FeatureID+".json")),
			New: func() (feature.Implementation, error) {
				return natcat.New(cfg.NatcatBaseURL), nil
			},
		},
	}

	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// seedDemo provisions a demo tenant and a super-admin account for local
// development. Safe to run repeatedly; existing records are kept.
func seedDemo(ctx context.Context, store database.Store, tenants *service.TenantService, auth *service.AuthService) error {
	if _, err := store.GetTenantBySubdomain(ctx, "demo"); errors.Is(err, domain.ErrNotFound) {
		t, err := tenants.Create(ctx, tenant.CreateRequest{Name: "Demo Library", Subdomain: "demo"})
		if err != nil {
			return fmt.Errorf("seed tenant: %w", err)
		}
		slog.Info("seeded demo tenant", "tenant_id", t.ID, "subdomain", t.Subdomain)
	}

	if _, err := store.GetUserByEmail(ctx, "admin@openshelf.local", ""); errors.Is(err, domain.ErrNotFound) {
		u, err := auth.Register(ctx, &user.CreateRequest{
			Email:    "admin@openshelf.local",
			Name:     "Platform Admin",
			Password: "changeme-now",
			Role:     actor.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("seed super-admin: %w", err)
		}
		slog.Info("seeded super-admin", "user_id", u.ID, "email", u.Email)
	}

	slog.Info("seed complete")
	return nil
}

// randomSecret returns a 32-byte hex secret.
func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
