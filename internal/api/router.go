package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/padimoney/padimoney-backend/internal/api/handler"
	"github.com/padimoney/padimoney-backend/internal/api/middleware"
	"github.com/padimoney/padimoney-backend/internal/api/spec"
	"github.com/padimoney/padimoney-backend/internal/config"
	"github.com/padimoney/padimoney-backend/internal/domain"
	"github.com/padimoney/padimoney-backend/internal/idempotency"
	"github.com/padimoney/padimoney-backend/internal/service"
)

// Services groups everything the router needs to build handlers.
type Services struct {
	Purchase *service.PurchaseService
	Catalog  *service.CatalogService
	KYC      *service.KYCService
	Account  *service.AccountService
	Profile  *service.ProfileService
	Dispatch *service.DispatchService
	Deposit  *service.DepositService
}

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     redis.Cmdable
	idemStore *idempotency.Store
	svcs      Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redisClient redis.Cmdable, idemStore *idempotency.Store, svcs Services) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		idemStore: idemStore,
		svcs:      svcs,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	catalogHandler := handler.NewCatalogHandler(api.svcs.Catalog)
	purchaseHandler := handler.NewPurchaseHandler(api.svcs.Purchase)
	kycHandler := handler.NewKYCHandler(api.svcs.KYC)
	accountHandler := handler.NewAccountHandler(api.svcs.Account)
	profileHandler := handler.NewProfileHandler(api.svcs.Profile)
	commHandler := handler.NewCommunicationHandler(api.svcs.Dispatch)
	webhookHandler := handler.NewWebhookHandler(api.svcs.Deposit, api.cfg.WebhookHMACKey, api.cfg.WebhookSkipSignature)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Post("/v1/profiles", profileHandler.Register)
		r.Post("/v1/webhooks/bank", webhookHandler.HandleBankCredit)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/plans/{network}", catalogHandler.GetPlans)
		r.Get("/v1/exams/prices", catalogHandler.GetExamPrices)
		r.Get("/v1/crypto/rates", catalogHandler.GetRates)

		idem := middleware.IdempotencyMiddleware(api.idemStore, api.logger)
		r.With(idem).Post("/v1/purchases/airtime", purchaseHandler.PurchaseAirtime)
		r.With(idem).Post("/v1/purchases/data", purchaseHandler.PurchaseData)
		r.With(idem).Post("/v1/purchases/epin", purchaseHandler.PurchaseEpin)
		r.With(idem).Post("/v1/purchases/crypto", purchaseHandler.PurchaseCrypto)

		r.Post("/v1/kyc/requests", kycHandler.Submit)
		r.Post("/v1/virtual-accounts", accountHandler.Issue)
		r.Get("/v1/virtual-accounts/me", accountHandler.Get)

		r.Get("/v1/profiles/me", profileHandler.Get)
		r.Get("/v1/transactions", profileHandler.ListTransactions)
		r.Get("/v1/transactions/{id}", profileHandler.GetTransaction)
		r.Post("/v1/beneficiaries", profileHandler.AddBeneficiary)
		r.Get("/v1/beneficiaries", profileHandler.ListBeneficiaries)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(domain.RoleAdmin, domain.RoleSuperAdmin))

			r.Get("/v1/kyc/requests", kycHandler.List)
			r.Get("/v1/kyc/requests/{id}", kycHandler.Get)
			r.Post("/v1/kyc/requests/{id}/review", kycHandler.Review)
			r.Post("/v1/communications", commHandler.Dispatch)
			r.Get("/v1/profiles", profileHandler.List)
			r.Post("/v1/profiles/{id}/suspend", profileHandler.Suspend)
		})
	})

	// Operational surfaces
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	return r
}
