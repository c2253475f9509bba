package router

import (
	"net/http"
	"strings"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apierror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/config"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/handler"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/metrics"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/middleware"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/repository"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"gorm.io/gorm"
)

// Deps are the collaborators built by the composition root. Everything but
// DB may be left zero: the router falls back to the ledger feed, the
// fallback directory, no notifications and an in-memory rate limiter.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Feed        service.SalesFeed
	FeedBreaker *infra.CircuitBreaker
	Directory   service.OperatorDirectory
	Notifier    service.SessionNotifier
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Limiter     *limiter.Limiter
	Clock       service.Clock
	Origins     []string
}

// New wires Handler ← Service ← Repository ← DB and returns the engine.
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.IsProduction(), d.Origins))
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	sessionRepo := repository.NewSessionRepository(d.DB)
	registerRepo := repository.NewRegisterRepository(d.DB)
	assignmentRepo := repository.NewAssignmentRepository(d.DB)
	movementRepo := repository.NewMovementRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	feed := d.Feed
	if feed == nil {
		feed = service.NewLedgerSalesFeed(movementRepo)
	}
	recon := service.NewReconciliationService(sessionRepo, feed, service.ReconciliationConfig{
		LocalCurrency: cfg.LocalCurrency,
		FeedTimeout:   cfg.SalesFeedTimeout,
	}, d.Notifier, d.Metrics, d.Clock)
	sessionSvc := service.NewSessionService(sessionRepo, registerRepo, assignmentRepo, movementRepo, recon, d.Notifier, d.Metrics, d.Clock)
	registerSvc := service.NewRegisterService(registerRepo)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, registerRepo)
	historySvc := service.NewHistoryService(sessionRepo, registerRepo, movementRepo, d.Directory)

	// ── Handlers ─────────────────────────────────────────────────────────────
	sessionsH := handler.NewSessionsHandler(sessionSvc, recon, historySvc)
	registersH := handler.NewRegistersHandler(registerSvc, historySvc)
	assignmentsH := handler.NewAssignmentsHandler(assignmentSvc)
	denomsH := handler.NewDenominationsHandler(recon)

	// ── Public ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(d.DB, d.Redis, d.FeedBreaker))
	if cfg.PrometheusEnabled {
		g := d.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ── API v1 (bearer auth) ─────────────────────────────────────────────────
	lim := d.Limiter
	if lim == nil {
		var err error
		if lim, err = middleware.NewLimiter(cfg.RateLimit, nil); err != nil {
			log.Warn().Err(err).Str("rate", cfg.RateLimit).Msg("invalid RATE_LIMIT, using 300-M")
			lim, _ = middleware.NewLimiter("300-M", nil)
		}
	}

	const (
		cashier    = service.RoleCashier
		supervisor = service.RoleSupervisor
		admin      = service.RoleAdmin
	)
	anyRole := middleware.RequireRole(cashier, supervisor, admin)
	managers := middleware.RequireRole(supervisor, admin)
	adminOnly := middleware.RequireRole(admin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RateLimit(lim))
	{
		s := v1.Group("/sessions")
		s.POST("", anyRole, sessionsH.Open)
		s.GET("", managers, sessionsH.List)
		s.GET("/active", anyRole, sessionsH.GetActive)
		s.GET("/:id", anyRole, sessionsH.Get)
		s.GET("/:id/expected-total", managers, sessionsH.ExpectedTotal)
		s.POST("/:id/close", anyRole, sessionsH.Close)
		s.POST("/:id/cancel", adminOnly, sessionsH.Cancel)
		s.POST("/:id/movements", anyRole, sessionsH.RecordMovement)
		s.GET("/:id/report", anyRole, sessionsH.Report)

		v1.POST("/denominations/validate", anyRole, denomsH.Validate)

		reg := v1.Group("/registers")
		reg.GET("", anyRole, registersH.List)
		reg.GET("/overview", managers, registersH.Overview)
		reg.GET("/:code", anyRole, registersH.Get)
		reg.GET("/:code/assignments", anyRole, assignmentsH.ListByRegister)
		reg.POST("", adminOnly, registersH.Create)
		reg.PUT("/:code", adminOnly, registersH.Update)
		reg.DELETE("/:code", adminOnly, registersH.Deactivate)
		reg.PATCH("/:code/activate", adminOnly, registersH.Reactivate)

		v1.GET("/operators/:id/assignments", anyRole, assignmentsH.ListByOperator)
		v1.GET("/operators/:id/assignments/default", anyRole, assignmentsH.GetDefault)

		v1.GET("/jobs/dead-letters", adminOnly, handler.DeadLetters(d.Redis))

		asg := v1.Group("/assignments", adminOnly)
		asg.POST("", assignmentsH.Assign)
		asg.PUT("/default", assignmentsH.SetDefault)
		asg.DELETE("/:operator_id/:code", assignmentsH.Unassign)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apierror.New("route not found"))
	})

	log.Debug().Dur("feed_timeout", cfg.SalesFeedTimeout).Bool("ledger_feed", d.Feed == nil).Msg("router ready")
	return r
}

// ParseOrigins splits a comma-separated CORS_ORIGINS value.
func ParseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
