package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"appcatalog/internal/bootstrap/config"
	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/errs"
	"appcatalog/internal/httpapi"
	cacheinfra "appcatalog/internal/infrastructure/cache"
	"appcatalog/internal/infrastructure/persistence/schema"
	"appcatalog/internal/metrics"
	"appcatalog/internal/usecase/account"
	"appcatalog/internal/usecase/catalog"
)

// App is everything a command needs, assembled by Module.
type App struct {
	Config   config.Config
	DB       *gorm.DB
	Logger   *slog.Logger
	KV       *cacheinfra.SQLiteStore
	Metrics  *metrics.Metrics
	Catalog  *catalog.Service
	Accounts *account.Service
	API      *httpapi.Server
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := schema.Migrate(ctx, a.DB); err != nil {
		return errs.Wrap(err, "migrate schema")
	}

	logging.Info(logCtx, "schema migration completed", slog.String("schema_version", schema.Version))
	return nil
}
