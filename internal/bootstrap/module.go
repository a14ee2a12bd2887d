package bootstrap

import (
	"context"
	"io"
	"log/slog"

	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"appcatalog/internal/bootstrap/config"
	"appcatalog/internal/bootstrap/database"
	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/httpapi"
	cacheinfra "appcatalog/internal/infrastructure/cache"
	"appcatalog/internal/infrastructure/mail"
	sqliterepo "appcatalog/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "appcatalog/internal/infrastructure/persistence/sqlite/uow"
	"appcatalog/internal/infrastructure/security"
	"appcatalog/internal/metrics"
	"appcatalog/internal/ports"
	"appcatalog/internal/querycache"
	"appcatalog/internal/usecase/account"
	"appcatalog/internal/usecase/catalog"
)

// Module expects a context.Context, a `name:"configFile"` string and a
// `name:"logOutput"` io.Writer to be supplied.
var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideLogger),
	fx.Provide(provideDatabase),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewAppRepository,
			fx.As(new(ports.AppRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewUserRepository,
			fx.As(new(ports.UserRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteStore,
			fx.As(fx.Self()),
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideMailer,
			fx.As(new(ports.Mailer)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideHasher,
			fx.As(new(ports.PasswordHasher)),
		),
	),
	fx.Provide(metrics.New),
	fx.Provide(provideCatalogService),
	fx.Provide(provideAccountService),
	fx.Provide(provideAPI),
	fx.Provide(provideApp),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

type loggerParams struct {
	fx.In

	Config config.Config
	Output io.Writer `name:"logOutput"`
}

func provideLogger(p loggerParams) (*slog.Logger, error) {
	return logging.New(p.Output, p.Config.Log.Level, p.Config.Log.Format)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideMailer(cfg config.Config) *mail.LogMailer {
	return mail.NewLogMailer(cfg.Mail.From)
}

func provideHasher() *security.BcryptHasher {
	return security.NewBcryptHasher(bcrypt.DefaultCost)
}

func provideCatalogService(
	repo ports.AppRepository,
	uow ports.UnitOfWork,
	cfg config.Config,
	m *metrics.Metrics,
) (*catalog.Service, error) {
	return catalog.NewService(repo, uow, cfg.Cache.AppsTTL,
		querycache.WithObserver(m.CacheObserver("apps")),
	)
}

type accountParams struct {
	fx.In

	Repo   ports.UserRepository
	UOW    ports.UnitOfWork
	KV     ports.Cache
	Mailer ports.Mailer
	Hasher ports.PasswordHasher
	Config config.Config
	Metric *metrics.Metrics
}

func provideAccountService(p accountParams) (*account.Service, error) {
	return account.NewService(p.Repo, p.UOW, p.KV, p.Mailer, p.Hasher,
		account.Settings{
			UsersTTL:            p.Config.Cache.UsersTTL,
			AdminEmails:         p.Config.Auth.AdminEmails,
			AllowedEmailDomains: p.Config.Auth.AllowedEmailDomains,
			SessionTTL:          p.Config.Auth.SessionTTL,
			VerificationTTL:     p.Config.Auth.VerificationTTL,
			PublicBaseURL:       p.Config.Auth.PublicBaseURL,
		},
		querycache.WithObserver(p.Metric.CacheObserver("users")),
	)
}

func provideAPI(catalogSvc *catalog.Service, accountSvc *account.Service, m *metrics.Metrics, cfg config.Config) (*httpapi.Server, error) {
	return httpapi.NewServer(catalogSvc, accountSvc, m, httpapi.Options{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})
}

type appParams struct {
	fx.In

	Config   config.Config
	DB       *gorm.DB
	Logger   *slog.Logger
	KV       *cacheinfra.SQLiteStore
	Metrics  *metrics.Metrics
	Catalog  *catalog.Service
	Accounts *account.Service
	API      *httpapi.Server
}

func provideApp(p appParams) *App {
	return &App{
		Config:   p.Config,
		DB:       p.DB,
		Logger:   p.Logger,
		KV:       p.KV,
		Metrics:  p.Metrics,
		Catalog:  p.Catalog,
		Accounts: p.Accounts,
		API:      p.API,
	}
}
