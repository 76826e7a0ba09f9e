package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mrk-construction/crm-engine/pkg/auth"
	"github.com/mrk-construction/crm-engine/pkg/config"
	"github.com/mrk-construction/crm-engine/pkg/database"
	"github.com/mrk-construction/crm-engine/pkg/handlers"
	"github.com/mrk-construction/crm-engine/pkg/metrics"
	"github.com/mrk-construction/crm-engine/pkg/middleware"
	"github.com/mrk-construction/crm-engine/pkg/repositories"
	"github.com/mrk-construction/crm-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", cfg.Database.Host),
		zap.Int("dedup_window_days", cfg.Intake.DedupWindowDays))

	if err := database.RunMigrations(cfg.Database.URL(), cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories.
	leadRepo := repositories.NewLeadRepository(db.Pool)
	userRepo := repositories.NewUserRepository(db.Pool)
	mappingRepo := repositories.NewCampaignMappingRepository(db.Pool)
	projectTypeRepo := repositories.NewProjectTypeRepository(db.Pool)
	activityRepo := repositories.NewActivityRepository(db.Pool)
	offerRepo := repositories.NewOfferRepository(db.Pool)

	// Services.
	tokens := auth.NewTokenService(cfg.Auth.SecretKey,
		time.Duration(cfg.Auth.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTokenDays)*24*time.Hour)
	authService := services.NewAuthService(userRepo, tokens, logger)
	userService := services.NewUserService(userRepo, logger)
	leadService := services.NewLeadService(leadRepo, userRepo, projectTypeRepo, logger)
	intakeService := services.NewIntakeService(leadRepo, mappingRepo, projectTypeRepo,
		time.Duration(cfg.Intake.DedupWindowDays)*24*time.Hour, logger)
	mappingService := services.NewCampaignMappingService(mappingRepo, projectTypeRepo, logger)
	activityService := services.NewActivityService(activityRepo, leadService, logger)
	offerService := services.NewOfferService(offerRepo, leadService, cfg.Storage.Path, logger)

	m := metrics.New()
	authMiddleware := auth.NewMiddleware(tokens, userRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, tokens, cfg.Auth.SecureCookies, m, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewWebhookHandler(intakeService, m, logger).RegisterRoutes(mux)
	handlers.NewLeadHandler(leadService, m, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUserHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewActivityHandler(activityService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewOfferHandler(offerService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCampaignMappingHandler(mappingService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProjectTypeHandler(projectTypeRepo, logger).RegisterRoutes(mux, authMiddleware)
	mux.Handle("GET /metrics", m.Handler())

	handler := middleware.RequestLogger(logger)(middleware.CORS(cfg.CORSOriginList())(mux))

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting crm-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
