package catalog

import (
	"context"
	"errors"
	"log/slog"

	"appcatalog/internal/bootstrap/logging"
	domaincatalog "appcatalog/internal/domain/catalog"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

// CreateApp validates and stores a new app, then appends it to the cached list.
func (s *Service) CreateApp(ctx context.Context, input domaincatalog.Input) (ports.App, error) {
	if err := checkContext(ctx); err != nil {
		return ports.App{}, err
	}
	fields, err := domaincatalog.ParseInput(input)
	if err != nil {
		return ports.App{}, invalidInput(err)
	}

	created, err := s.repo.CreateApp(ctx, fields)
	if err != nil {
		return ports.App{}, errs.Wrap(err, "create app")
	}
	s.apps.ForceAdd(created)

	logging.Info(logContext(ctx, "create"), "app created", slog.String("app_id", created.ID))
	return created, nil
}

// BulkCreateApps stores all inputs in one transaction. Nothing is written
// when any input is invalid.
func (s *Service) BulkCreateApps(ctx context.Context, inputs []domaincatalog.Input) ([]ports.App, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return []ports.App{}, nil
	}

	fields := make([]domaincatalog.Fields, 0, len(inputs))
	for i, input := range inputs {
		parsed, err := domaincatalog.ParseInput(input)
		if err != nil {
			return nil, invalidInput(errs.Wrapf(err, "app %d", i))
		}
		fields = append(fields, parsed)
	}

	var created []ports.App
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.BulkCreateApps(txCtx, fields)
		return err
	}); err != nil {
		return nil, errs.Wrap(err, "bulk create apps")
	}

	for _, app := range created {
		s.apps.ForceAdd(app)
	}

	logging.Info(logContext(ctx, "bulk_create"), "apps created", slog.Int("count", len(created)))
	return created, nil
}

// PatchApp applies the non-empty fields of patch and refreshes the cached copy.
func (s *Service) PatchApp(ctx context.Context, id string, patch domaincatalog.PatchInput) (ports.App, error) {
	if err := checkContext(ctx); err != nil {
		return ports.App{}, err
	}

	var updated ports.App
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetApp(txCtx, id)
		if err != nil {
			return err
		}
		next, err := domaincatalog.ApplyPatch(current.Fields(), patch)
		if err != nil {
			return invalidInput(err)
		}
		updated, err = s.repo.UpdateApp(txCtx, id, next)
		return err
	}); err != nil {
		if errors.Is(err, domaincatalog.ErrAppNotFound) {
			return ports.App{}, errs.Keyed(err, errs.KeyModifyNonexistent)
		}
		return ports.App{}, errs.Wrapf(err, "patch app %s", id)
	}

	if err := s.apps.RefetchOne(ctx, matchID(id), func(ctx context.Context, current ports.App) (ports.App, error) {
		return s.repo.GetApp(ctx, current.ID)
	}); err != nil {
		// The row is already committed; drop the snapshot so the next read is correct.
		logging.Warn(logContext(ctx, "patch"), "refetch app failed, invalidating cache",
			slog.String("app_id", id), slog.Any("err", errs.Loggable(err)))
		s.apps.Invalidate()
	}

	logging.Info(logContext(ctx, "patch"), "app updated", slog.String("app_id", id))
	return updated, nil
}

// DeleteApp removes the app and drops it from the cached list.
func (s *Service) DeleteApp(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	if err := s.repo.DeleteApp(ctx, id); err != nil {
		if errors.Is(err, domaincatalog.ErrAppNotFound) {
			return errs.Keyed(err, errs.KeyModifyNonexistent)
		}
		return errs.Wrapf(err, "delete app %s", id)
	}
	s.apps.ForceRemove(matchID(id))

	logging.Info(logContext(ctx, "delete"), "app deleted", slog.String("app_id", id))
	return nil
}

// SetApproval records a moderation decision.
func (s *Service) SetApproval(ctx context.Context, id string, status domaincatalog.ApprovalStatus) (ports.App, error) {
	return s.PatchApp(ctx, id, domaincatalog.PatchInput{Approval: string(status)})
}
