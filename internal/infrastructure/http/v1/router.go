package v1

import (
	"github.com/gin-gonic/gin"

	"repopa/internal/core/security"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/inforequest"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
	"repopa/internal/infrastructure/http/v1/dto"
	"repopa/internal/infrastructure/http/v1/handlers"
	"repopa/internal/infrastructure/http/v1/middleware"
	"repopa/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Debug switches gin to debug mode.
	Debug bool

	// DB backs the health checks.
	DB handlers.Database

	// Version is reported by /health/info.
	Version string

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Policy decides which role may do what.
	Policy middleware.Authorizer

	// Idempotency stores Idempotency-Key responses; nil disables the
	// middleware.
	Idempotency middleware.IdempotencyStore

	Auth    handlers.AuthService
	Entes   handlers.EnteService
	Reports handlers.ReportService
	Records RecordServices
}

// RecordServices are the services of the records attached to entities.
type RecordServices struct {
	GoverningBodies     *governingbody.Service
	Directors           *director.Service
	Powers              *power.Service
	RegulatoryDocuments *regdoc.Service
	InformationRequests *inforequest.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	if cfg.DB != nil {
		healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		registerUserRoutes(protected, cfg)
		registerEntesRoutes(protected, cfg)
		registerRecordRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Auth == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.Auth)

	publicAuth := rg.Group("/auth")

	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerUserRoutes registers user management, restricted to
// administrators by the policy.
func registerUserRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Auth == nil {
		return
	}

	h := handlers.NewAuthHandler(handlers.NewBaseHandler(), cfg.Auth)
	users := rg.Group("/users")
	users.GET("", middleware.RequireAction(cfg.Policy, security.ActionRead, security.ResourceUsers), h.ListUsers)
	users.POST("", middleware.RequireAction(cfg.Policy, security.ActionCreate, security.ResourceUsers), h.CreateUser)
}

// registerEntesRoutes registers entity registration, maintenance and the
// dashboard.
func registerEntesRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Entes == nil {
		return
	}

	h := handlers.NewEntesHandler(handlers.NewBaseHandler(), cfg.Entes)
	can := func(action security.Action) gin.HandlerFunc {
		return middleware.RequireAction(cfg.Policy, action, security.ResourceEntes)
	}

	entes := rg.Group("/entes")
	entes.GET("", can(security.ActionRead), h.List)
	entes.POST("", can(security.ActionCreate), h.Register)
	entes.GET("/folio-preview", can(security.ActionRead), h.PreviewFolio)
	entes.GET("/:id", can(security.ActionRead), h.Get)
	entes.PUT("/:id", can(security.ActionUpdate), h.Update)
	entes.DELETE("/:id", can(security.ActionDelete), h.Delete)
	entes.GET("/:id/history", can(security.ActionRead), h.History)

	rg.GET("/dashboard/stats",
		middleware.RequireAction(cfg.Policy, security.ActionRead, security.ResourceStats), h.Stats)
}

// registerRecordRoutes registers the CRUD endpoints of every record kind.
func registerRecordRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	svc := cfg.Records

	if svc.GoverningBodies != nil {
		h := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*governingbody.Member, dto.CreateMemberRequest, dto.UpdateMemberRequest]{
			Service:      svc.GoverningBodies,
			DefaultOrder: "member_name",
			MapCreate:    dto.NewMember,
			MapUpdate:    dto.ApplyMember,
		})
		RegisterRecordRoutes(rg.Group("/governing-bodies"), h, cfg.Policy, security.ResourceRecords)
	}

	if svc.Directors != nil {
		h := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*director.Director, dto.CreateDirectorRequest, dto.UpdateDirectorRequest]{
			Service:      svc.Directors,
			DefaultOrder: "-start_date",
			MapCreate:    dto.NewDirector,
			MapUpdate:    dto.ApplyDirector,
		})
		RegisterRecordRoutes(rg.Group("/directors"), h, cfg.Policy, security.ResourceRecords)
	}

	if svc.Powers != nil {
		h := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*power.Power, dto.CreatePowerRequest, dto.UpdatePowerRequest]{
			Service:      svc.Powers,
			DefaultOrder: "-grant_date",
			MapCreate:    dto.NewPower,
			MapUpdate:    dto.ApplyPower,
		})
		RegisterRecordRoutes(rg.Group("/powers"), h, cfg.Policy, security.ResourceRecords)
	}

	if svc.RegulatoryDocuments != nil {
		h := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*regdoc.Document, dto.CreateDocumentRequest, dto.UpdateDocumentRequest]{
			Service:      svc.RegulatoryDocuments,
			DefaultOrder: "-publication_date",
			MapCreate:    dto.NewDocument,
			MapUpdate:    dto.ApplyDocument,
		})
		RegisterRecordRoutes(rg.Group("/regulatory-documents"), h, cfg.Policy, security.ResourceRecords)
	}

	if svc.InformationRequests != nil {
		h := handlers.NewRecordHandler(base, handlers.RecordHandlerConfig[*inforequest.Request, dto.CreateInfoRequest, dto.UpdateInfoRequest]{
			Service:      svc.InformationRequests,
			DefaultOrder: "-request_date",
			MapCreate:    dto.NewInfoRequest,
			MapUpdate:    dto.ApplyInfoRequest,
		})
		RegisterRecordRoutes(rg.Group("/information-requests"), h, cfg.Policy, security.ResourceRecords)
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Reports == nil {
		return
	}

	h := handlers.NewReportsHandler(handlers.NewBaseHandler(), cfg.Reports)
	reportsGroup := rg.Group("/reports")
	read := middleware.RequireAction(cfg.Policy, security.ActionRead, security.ResourceReports)
	reportsGroup.GET("/history.csv", read, h.HistoryCSV)
	reportsGroup.GET("/history.html", read, h.HistoryHTML)
}
