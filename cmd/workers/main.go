package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"docufind/backend/internal/claims"
	"docufind/backend/internal/config"
	"docufind/backend/internal/jobs"
	"docufind/backend/internal/removal"
	"docufind/backend/internal/reports"
)

// The workers binary runs the maintenance sweeps separately from the
// API so a busy request path never delays them.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	scheduler := jobs.NewScheduler(
		reports.NewRepository(db),
		claims.NewRepository(db),
		removal.NewRepository(db),
		logger,
	)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Stop()
}
