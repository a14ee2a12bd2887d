package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"appcatalog/internal/bootstrap/logging"
	domaincatalog "appcatalog/internal/domain/catalog"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
	"appcatalog/internal/querycache"
)

const cacheName = "apps"

type Service struct {
	repo ports.AppRepository
	uow  ports.UnitOfWork
	apps *querycache.Cache[ports.App]
}

// NewService builds the catalog service and its apps query cache. opts are
// passed to the cache (clock, observer).
func NewService(repo ports.AppRepository, uow ports.UnitOfWork, ttl time.Duration, opts ...querycache.Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("app repository is required")
	}
	if uow == nil {
		return nil, errors.New("catalog unit of work is required")
	}

	apps, err := querycache.New(ttl, repo.ListApps, append([]querycache.Option{querycache.WithName(cacheName)}, opts...)...)
	if err != nil {
		return nil, errs.Wrap(err, "create apps cache")
	}

	return &Service{
		repo: repo,
		uow:  uow,
		apps: apps,
	}, nil
}

// Cache exposes the apps cache for stats and tests.
func (s *Service) Cache() *querycache.Cache[ports.App] { return s.apps }

func matchID(id string) querycache.Predicate[ports.App] {
	return func(app ports.App) bool { return app.ID == id }
}

func logContext(ctx context.Context, op string) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "usecase.catalog"), slog.String("op", op))
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}

// invalidInput keys validation failures for the API.
func invalidInput(err error) error {
	if errors.Is(err, domaincatalog.ErrInvalidApp) || errors.Is(err, domaincatalog.ErrNameMissing) {
		return errs.Keyed(err, errs.KeyRequestBodyInvalid)
	}
	return err
}
