package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/repo/memstore"
	"github.com/Alijeyrad/playcare_backend/internal/repo/sqlstore"
	"github.com/Alijeyrad/playcare_backend/internal/service/export"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
	"github.com/Alijeyrad/playcare_backend/pkg/database"
	"github.com/Alijeyrad/playcare_backend/pkg/email"
	"github.com/Alijeyrad/playcare_backend/pkg/events"
	"github.com/Alijeyrad/playcare_backend/pkg/llm"
	"github.com/Alijeyrad/playcare_backend/pkg/lock"
	"github.com/Alijeyrad/playcare_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/playcare_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/playcare_backend/pkg/s3"
)

// InfraModule provides all infrastructure dependencies. Optional backends
// (Redis, NATS, S3) are provided as nil when disabled and callers fall back
// to in-process implementations.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideLocker),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideStorage),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
	fx.Provide(ProvideAssistant),
)

func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (repo.Store, error) {
	dbCfg := database.FromCentralConfig(cfg.Database)
	if strings.EqualFold(dbCfg.Driver, database.DriverMemory) {
		slog.Warn("using the in-memory store, nothing will be persisted")
		return memstore.New(), nil
	}

	drv, err := database.NewEntDriverFromConfig(dbCfg)
	if err != nil {
		return nil, err
	}
	if dbCfg.AutoMigrate {
		if err := database.MigrateEnt(context.Background(), drv, dbCfg); err != nil {
			_ = drv.Close()
			return nil, err
		}
	}

	store := sqlstore.New(drv)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return store.Close()
		},
	})
	return store, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideLocker serializes session transitions. With Redis the lock holds
// across replicas.
func ProvideLocker(cfg *config.Config, rdb *redis.Client) lock.Locker {
	if rdb == nil {
		return lock.NewLocal()
	}
	ttl := time.Duration(cfg.Sessions.LockTTLSeconds) * time.Second
	return lock.NewRedis(rdb, "playcare:lock:", ttl)
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	authCfg := authorize.FromCentralConfig(cfg.Authorization)

	// policies persist only in postgres; otherwise they are seeded in memory
	var dsn string
	if cfg.CasbinDatabase.Host != "" && !strings.EqualFold(cfg.CasbinDatabase.Driver, database.DriverSQLite) {
		dsn = database.NewDSN(cfg.CasbinDatabase)
	}

	enforcer, cleanup, err := authorize.NewEnforcer(authCfg, dsn)
	if err != nil {
		return nil, err
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	if err := authorize.SeedDefaultPolicies(context.Background(), auth); err != nil {
		cleanup(context.Background())
		return nil, err
	}
	if authCfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, slog.Default())
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) (email.Sender, error) {
	client, err := email.NewFromCentral(cfg.Email)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideStorage returns nil when S3 is disabled; exports then render inline.
func ProvideStorage(cfg *config.Config) (export.Storage, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}
	client, err := s3pkg.New(cfg.S3)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if !cfg.Nats.Enabled {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("playcare"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvidePublisher(nc *nats.Conn) events.Publisher {
	if nc == nil {
		return events.Nop{}
	}
	return events.NewNATS(nc)
}

func ProvideAssistant(cfg *config.Config) llm.Client {
	return llm.NewFromCentral(cfg.AI)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(),
		observability.FromCentralConfig(cfg.Observability, cfg.Server.Environment))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
