package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stautomata/fleet_treasury/internal/core/domain"
	portssvc "github.com/stautomata/fleet_treasury/internal/core/ports/services"
	"github.com/stautomata/fleet_treasury/internal/core/services"
	"github.com/stautomata/fleet_treasury/internal/handlers"
	"github.com/stautomata/fleet_treasury/internal/middleware"
	"github.com/stautomata/fleet_treasury/internal/platform/config"
	"github.com/stautomata/fleet_treasury/internal/repositories/database/pgsql"
	"github.com/stautomata/fleet_treasury/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sweepInterval is how often the background settlement sweep runs.
const sweepInterval = 30 * time.Second

// @title Fleet Treasury API
// @version 1.0
// @description Ledger-backed treasury and trade ticketing for fleet automation.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire repositories and services; the treasury replays the ledger here
	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer, err := services.NewContainer(context.Background(), repos, domain.Credits(cfg.StartingCredits))
	if err != nil {
		logger.Error("Failed to initialize services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Treasury projection ready.")

	// Background settlement sweep, restartable from cursor 0 every pass
	go runSettlementSweeper(logger, serviceContainer.Settlement)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations before the server starts.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	// Open a temporary standard sql.DB connection for migrations, using the
	// pgx stdlib driver to stay compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// runSettlementSweeper periodically settles completed tickets. Sweeping from
// cursor 0 every pass keeps it self-healing: anything missed by a crashed
// pass is picked up by the next one.
func runSettlementSweeper(logger *slog.Logger, settlement portssvc.SettlementSvcFacade) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		resp, err := settlement.SweepOnce(context.Background(), 0)
		if err != nil {
			logger.Error("Settlement sweep failed", slog.String("error", err.Error()))
			continue
		}
		if resp.Settled > 0 || resp.AlreadySettled > 0 {
			logger.Info("Settlement sweep finished",
				slog.Int("settled", resp.Settled),
				slog.Int("already_settled", resp.AlreadySettled),
				slog.Int64("max_ledger_id", resp.MaxLedgerIDSeen),
			)
		}
	}
}
