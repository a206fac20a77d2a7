package router

import (
	"cashdesk/internal/config"
	"cashdesk/internal/handler"
	"cashdesk/internal/middleware"
	"cashdesk/internal/model"
	"cashdesk/internal/repository"
	"cashdesk/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus a
// cleanup func for its background goroutines.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// publisher may be nil: close reports are then not queued.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, publisher service.SessionReportPublisher) (*gin.Engine, func()) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	sessionRepo := repository.NewSessionRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	denominationRepo := repository.NewDenominationRepository(db)
	catalog := repository.NewProductCatalog(db, rdb, cfg.ProductCacheTTL)

	// ── Services ─────────────────────────────────────────────────────────────
	denominationSvc := service.NewDenominationService(denominationRepo, cfg.CurrencyCode)
	ledger := service.NewRegisterLedger(sessionRepo, registerRepo, denominationSvc, publisher, LedgerPolicy(cfg))
	recorder := service.NewTransactionRecorder(sessionRepo, RecorderPolicy(cfg))
	pricingSvc := service.NewPricingService(catalog, PricingPolicy(cfg))

	// ── Handlers ─────────────────────────────────────────────────────────────
	sessionsH := handler.NewSessionHandler(ledger)
	transactionsH := handler.NewTransactionHandler(recorder)
	pricingH := handler.NewPricingHandler(pricingSvc)
	denominationsH := handler.NewDenominationHandler(denominationSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.NewHealthHandler(db, rdb, cfg.CurrencyCode).Check)

	// Protected routes. The limiter runs after JWTAuth so it can key on the operator.
	anyRole := middleware.RequireRole(middleware.RoleCashier, middleware.RoleSupervisor, middleware.RoleAdmin)
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), limiter.Middleware(), anyRole)
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/open", sessionsH.Open)
			sessions.GET("/active", sessionsH.Active)
			sessions.GET("/history", middleware.RequireRole(middleware.RoleSupervisor, middleware.RoleAdmin), sessionsH.History)
			sessions.GET("/:id", sessionsH.Get)
			sessions.GET("/:id/transactions", sessionsH.Transactions)
			sessions.POST("/:id/close", sessionsH.Close)
		}

		v1.POST("/transactions", transactionsH.Record)
		v1.POST("/pricing/totals", pricingH.Totals)

		v1.GET("/denominations", denominationsH.List)
		v1.POST("/denominations/breakdown", denominationsH.Breakdown)
	}

	// Swagger UI: only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, limiter.Stop
}

func LedgerPolicy(cfg *config.Config) service.LedgerPolicy {
	p := service.DefaultLedgerPolicy()
	p.Currency = cfg.CurrencyCode
	p.CurrencyDecimals = cfg.CurrencyDecimals
	p.WarningPct = cfg.WarningPct()
	p.CriticalPct = cfg.CriticalPct()
	p.HistoryMaxLimit = cfg.HistoryMaxLimit
	if p.HistoryDefaultLimit > p.HistoryMaxLimit {
		p.HistoryDefaultLimit = p.HistoryMaxLimit
	}
	return p
}

// RecorderPolicy keeps the configured methods the ledger knows; unknown names
// are logged and ignored.
func RecorderPolicy(cfg *config.Config) service.RecorderPolicy {
	var methods []model.PaymentMethod
	for _, name := range cfg.ActivePaymentMethods {
		m := model.PaymentMethod(name)
		if !m.Valid() {
			log.Warn().Str("method", name).Msg("ACTIVE_PAYMENT_METHODS: unknown method ignored")
			continue
		}
		methods = append(methods, m)
	}
	return service.RecorderPolicy{ActivePaymentMethods: methods, CurrencyDecimals: cfg.CurrencyDecimals}
}

func PricingPolicy(cfg *config.Config) service.PricingPolicy {
	return service.PricingPolicy{
		Currency:         cfg.CurrencyCode,
		CurrencyDecimals: cfg.CurrencyDecimals,
		DefaultTaxRate:   cfg.DefaultTaxRatePct(),
	}
}
