package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)

	"github.com/canvass-hq/canvass-engine/pkg/config"
	"github.com/canvass-hq/canvass-engine/pkg/database"
	"github.com/canvass-hq/canvass-engine/pkg/handlers"
	"github.com/canvass-hq/canvass-engine/pkg/logging"
	"github.com/canvass-hq/canvass-engine/pkg/middleware"
	"github.com/canvass-hq/canvass-engine/pkg/repositories"
	"github.com/canvass-hq/canvass-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Migrations run over database/sql; the service itself uses the pgx pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	locationRepo := repositories.NewLocationRepository(db)
	doorRepo := repositories.NewDoorStatusRepository(db)
	leadRepo := repositories.NewLeadRepository(db)

	// Services
	canvassService := services.NewCanvassService(db, doorRepo, locationRepo, leadRepo, cfg.Canvass, logger)
	locationService := services.NewLocationService(locationRepo, cfg.Canvass.RecentLocationsLimit, logger)

	// Handlers
	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	locationHandler := handlers.NewLocationHandler(locationService, logger)
	locationHandler.RegisterRoutes(mux)

	canvassHandler := handlers.NewCanvassHandler(canvassService, logger)
	canvassHandler.RegisterRoutes(mux)

	leadHandler := handlers.NewLeadHandler(canvassService, logger)
	leadHandler.RegisterRoutes(mux)

	mux.Handle("/metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(middleware.Metrics(mux))

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting canvass-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
