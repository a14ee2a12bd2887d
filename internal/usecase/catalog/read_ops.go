package catalog

import (
	"context"
	"errors"

	domaincatalog "appcatalog/internal/domain/catalog"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

// ListApps returns every app in creation order, served from the apps cache.
// The returned slice is shared and must not be modified.
func (s *Service) ListApps(ctx context.Context) ([]ports.App, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	apps, err := s.apps.Get(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list apps")
	}
	return apps, nil
}

// GetApp reads a single app from the repository.
func (s *Service) GetApp(ctx context.Context, id string) (ports.App, error) {
	if err := checkContext(ctx); err != nil {
		return ports.App{}, err
	}
	app, err := s.repo.GetApp(ctx, id)
	if err != nil {
		if errors.Is(err, domaincatalog.ErrAppNotFound) {
			return ports.App{}, errs.Keyed(err, errs.KeyNotFound)
		}
		return ports.App{}, errs.Wrapf(err, "get app %s", id)
	}
	return app, nil
}

// PendingApps lists apps whose approval is still undecided.
func (s *Service) PendingApps(ctx context.Context) ([]ports.App, error) {
	apps, err := s.ListApps(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]ports.App, 0, len(apps))
	for _, app := range apps {
		if app.Approval.NeedsReview() {
			pending = append(pending, app)
		}
	}
	return pending, nil
}
