package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/api"
	"github.com/padimoney/padimoney-backend/internal/api/middleware"
	"github.com/padimoney/padimoney-backend/internal/config"
	"github.com/padimoney/padimoney-backend/internal/db"
	"github.com/padimoney/padimoney-backend/internal/idempotency"
	"github.com/padimoney/padimoney-backend/internal/notify"
	"github.com/padimoney/padimoney-backend/internal/observability"
	"github.com/padimoney/padimoney-backend/internal/provider"
	"github.com/padimoney/padimoney-backend/internal/repository"
	"github.com/padimoney/padimoney-backend/internal/service"
	"github.com/padimoney/padimoney-backend/internal/worker"
)

// Run bootstraps the HTTP server and background workers, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, pool, cfg.IdempotencyTTL)
	store := repository.NewStore(pool)

	clubKonnect := provider.NewClubKonnect(cfg.ClubKonnectBaseURL, cfg.ClubKonnectUserID, cfg.ClubKonnectAPIKey, logger)
	bank := provider.NewBankClient(cfg.BankPartnerBaseURL, cfg.BankPartnerSecretKey, logger)
	identity := provider.NewIdentityClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey)
	rates := provider.NewCoinGecko(cfg.CoinGeckoBaseURL, redisClient, logger)

	email := notify.NewSendGridClient(cfg.EmailBaseURL, cfg.EmailAPIKey, cfg.EmailFromAddr, cfg.EmailFromName)
	sms := notify.NewTermiiClient(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSSenderID)

	purchaseSvc := service.NewPurchaseService(store, service.Providers{
		Airtime: clubKonnect,
		Data:    clubKonnect,
		Epin:    clubKonnect,
		Rates:   rates,
	}, cfg.NGNPerUSD, logger)
	catalogSvc := service.NewCatalogService(clubKonnect, clubKonnect, rates)
	kycSvc := service.NewKYCService(store, email, logger)
	accountSvc := service.NewAccountService(store, bank, identity, email, logger)
	profileSvc := service.NewProfileService(store)
	dispatchSvc := service.NewDispatchService(store, email, sms, cfg.DispatchDelay, logger)
	depositSvc := service.NewDepositService(store, logger)
	sweepSvc := service.NewSweepService(store, cfg.PendingTxTTL, 100, logger)

	provisioningWorker := worker.NewProvisioningWorker(store, accountSvc).
		WithPollInterval(cfg.ProvisionPollInterval).
		WithBatchSize(cfg.ProvisionBatchSize)
	stopProvisioning := provisioningWorker.Run(ctx)
	logger.Info("provisioning worker started",
		zap.Duration("interval", cfg.ProvisionPollInterval),
		zap.Int32("batch", cfg.ProvisionBatchSize))

	sweepWorker := worker.NewSweepWorker(sweepSvc).WithInterval(cfg.SweepInterval)
	stopSweep := sweepWorker.Run(ctx)
	logger.Info("pending transaction sweeper started",
		zap.Duration("interval", cfg.SweepInterval),
		zap.Duration("ttl", cfg.PendingTxTTL))

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, api.Services{
		Purchase: purchaseSvc,
		Catalog:  catalogSvc,
		KYC:      kycSvc,
		Account:  accountSvc,
		Profile:  profileSvc,
		Dispatch: dispatchSvc,
		Deposit:  depositSvc,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping workers")
	stopProvisioning()
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
