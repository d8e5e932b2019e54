package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"docufind/backend/internal/claims"
	"docufind/backend/internal/config"
	"docufind/backend/internal/matching"
	"docufind/backend/internal/notifications"
	"docufind/backend/internal/payments"
	"docufind/backend/internal/payments/momo"
	"docufind/backend/internal/premium"
	"docufind/backend/internal/removal"
	"docufind/backend/internal/reports"
	"docufind/backend/internal/verification"
	"docufind/backend/pkg/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Logging.Level == "debug" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// gorm shares the connection pool; it owns only the email log
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx := context.Background()

	var store storage.ObjectStore
	switch cfg.Storage.Provider {
	case "s3":
		store, err = storage.NewS3Store(ctx, cfg.Storage.S3Region, cfg.Storage.S3Bucket,
			cfg.Storage.S3AccessKey, cfg.Storage.S3SecretKey)
	default:
		store, err = storage.NewLocalStore(cfg.Storage.MediaDir)
	}
	if err != nil {
		logger.Fatal("Failed to initialize object store", zap.Error(err))
	}

	mailer, err := notifications.NewService(ctx, gormDB, cfg.Email, logger)
	if err != nil {
		logger.Fatal("Failed to initialize notifications", zap.Error(err))
	}

	// ---------------- REPORTS ----------------
	reportsRepo := reports.NewRepository(db)
	reportsService := reports.NewService(reportsRepo, store, cfg.Storage.MediaBase, logger)
	reportsHandler := reports.NewHandler(reportsService, logger)

	// ---------------- VERIFICATION ----------------
	verifyService := verification.NewService(reportsService, rdb,
		cfg.Policy.VerifyAttempts, cfg.Policy.VerifyWindow, logger)
	verifyHandler := verification.NewHandler(verifyService, logger)

	// ---------------- PAYMENTS ----------------
	gateway := momo.NewClient(momo.Config{
		BaseURL:         cfg.MoMo.BaseURL,
		APIUser:         cfg.MoMo.APIUser,
		APIKey:          cfg.MoMo.APIKey,
		SubscriptionKey: cfg.MoMo.SubscriptionKey,
		TargetEnv:       cfg.MoMo.TargetEnv,
		Currency:        cfg.MoMo.Currency,
	}, logger)
	paymentsRepo := payments.NewRepository(db)
	paymentsService := payments.NewService(paymentsRepo, gateway, reportsService,
		cfg.Policy.ContactFee, cfg.Policy.PremiumFee, logger)
	paymentsHandler := payments.NewHandler(paymentsService, logger)

	// ---------------- CLAIMS ----------------
	claimsRepo := claims.NewRepository(db)
	claimsService := claims.NewService(claimsRepo, reportsService, mailer, paymentsService,
		cfg.Server.FrontendURL, cfg.Policy.TokenTTL, logger)
	claimsHandler := claims.NewHandler(claimsService, reportsService, logger)

	// ---------------- PREMIUM ----------------
	premiumService := premium.NewService(reportsService, verifyService, paymentsService,
		cfg.Policy.PremiumDuration, logger)
	premiumHandler := premium.NewHandler(premiumService, logger)

	// ---------------- REMOVAL ----------------
	removalRepo := removal.NewRepository(db)
	removalService := removal.NewService(removalRepo, reportsService, verifyService, mailer,
		cfg.Server.FrontendURL, cfg.Policy.TokenTTL, logger)
	removalHandler := removal.NewHandler(removalService, logger)

	// ---------------- MATCHING ----------------
	matcher := matching.NewService(reportsRepo, claimsService, mailer, cfg.Server.FrontendURL, logger)
	reportsService.SetMatchHook(matcher.ReportCreated)

	router := gin.Default()
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		reportsHandler.RegisterRoutes(api)
		verifyHandler.RegisterRoutes(api)
		claimsHandler.RegisterRoutes(api)
		paymentsHandler.RegisterRoutes(api)
		premiumHandler.RegisterRoutes(api)
		removalHandler.RegisterRoutes(api)
	}

	// blurred listing images; originals only leave through the
	// token-guarded protected-image endpoint
	registerMedia(router, cfg.Storage, store, logger)

	router.GET("/health/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// registerMedia exposes stored blurred images under the media base.
// Original image keys are refused here; they require a claim token.
func registerMedia(router *gin.Engine, cfg config.StorageConfig, store storage.ObjectStore, logger *zap.Logger) {
	base := strings.TrimRight(cfg.MediaBase, "/")
	if base == "" || strings.HasPrefix(base, "http") {
		return
	}

	router.GET(base+"/*key", func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if !strings.Contains(key, "/blurred/") {
			c.JSON(http.StatusForbidden, gin.H{"error": "This image is protected."})
			return
		}

		rc, err := store.Download(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found."})
			return
		}
		defer rc.Close()

		contentType := "image/jpeg"
		if path.Ext(key) == ".png" {
			contentType = "image/png"
		}
		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	})
}
