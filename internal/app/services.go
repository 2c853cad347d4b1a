package app

import (
	"go.uber.org/fx"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
	"github.com/Alijeyrad/playcare_backend/internal/service/document"
	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/internal/service/gameconfig"
	"github.com/Alijeyrad/playcare_backend/internal/service/patient"
	"github.com/Alijeyrad/playcare_backend/internal/service/report"
	"github.com/Alijeyrad/playcare_backend/internal/service/session"
	"github.com/Alijeyrad/playcare_backend/pkg/email"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/llm"
	"github.com/Alijeyrad/playcare_backend/pkg/lock"
	pasetotoken "github.com/Alijeyrad/playcare_backend/pkg/paseto"
	"github.com/Alijeyrad/playcare_backend/pkg/util/codes"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideCatalog,
		ProvideCodeGenerator,
		ProvideGameConfigService,
		ProvideSessionService,
		ProvidePatientService,
		ProvideReportService,
		ProvideRenderer,
		ProvideExportService,
		ProvidePasetoManager,
	),
)

func ProvideCatalog(cfg *config.Config) (catalog.Service, error) {
	return catalog.Load(cfg.Catalog.Path)
}

func ProvideCodeGenerator(cfg *config.Config) *codes.Generator {
	return codes.NewGenerator(codes.FromCentralConfig(cfg.Codes))
}

func ProvideGameConfigService(games catalog.Service, store repo.Store) gameconfig.Service {
	return gameconfig.New(games, store, store)
}

func ProvideSessionService(
	store repo.Store,
	configs gameconfig.Service,
	locker lock.Locker,
	pub events.Publisher,
	gen *codes.Generator,
) session.Service {
	return session.New(store, store, configs, locker, pub, gen)
}

func ProvidePatientService(store repo.Store, gen *codes.Generator) patient.Service {
	return patient.New(store, store, gen)
}

func ProvideReportService(store repo.Store, assistant llm.Client, pub events.Publisher, cfg *config.Config) report.Service {
	return report.New(store, store, store, assistant, pub, report.OptionsFromConfig(cfg.AI))
}

func ProvideRenderer(cfg *config.Config) export.Renderer {
	return document.New(document.GeometryFromConfig(cfg.Document))
}

func ProvideExportService(
	reports report.Service,
	store repo.Store,
	renderer export.Renderer,
	storage export.Storage,
	mailer email.Sender,
	pub events.Publisher,
	cfg *config.Config,
) export.Service {
	return export.New(reports, store, store, renderer, storage, mailer, pub, export.OptionsFromConfig(cfg))
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
