package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/api/http/handler"
	"github.com/Alijeyrad/playcare_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/internal/service/gameconfig"
	"github.com/Alijeyrad/playcare_backend/internal/service/patient"
	"github.com/Alijeyrad/playcare_backend/internal/service/report"
	"github.com/Alijeyrad/playcare_backend/internal/service/session"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/playcare_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Auth          authorize.IAuthorization
	PasetoMgr     *pasetotoken.Manager
	CatalogSvc    catalog.Service
	GameConfigSvc gameconfig.Service
	SessionSvc    session.Service
	PatientSvc    patient.Service
	ReportSvc     report.Service
	ExportSvc     export.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr)
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Handlers
	catalogH := handler.NewCatalogHandler(r.p.CatalogSvc)
	configH := handler.NewGameConfigHandler(r.p.GameConfigSvc)
	sessionH := handler.NewSessionHandler(r.p.SessionSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	reportH := handler.NewReportHandler(r.p.ReportSvc, r.p.ExportSvc)

	api := app.Group("/api/v1", authRequired)

	// 4. Delegate to sub-files
	r.registerCatalogRoutes(api, catalogH, requirePerm)
	r.registerPatientRoutes(api, patientH, configH, sessionH, requirePerm)
	r.registerSessionRoutes(api, sessionH, requirePerm)
	r.registerReportRoutes(api, reportH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return !r.p.Cfg.Authorization.HealthCheckEnabled || authorize.IsPolicyHealthy()
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
