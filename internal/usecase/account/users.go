package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"appcatalog/internal/bootstrap/logging"
	domainaccount "appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

// ListUsers returns every user from the users cache. The slice is shared and
// must not be modified.
func (s *Service) ListUsers(ctx context.Context) ([]ports.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	users, err := s.users.Get(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "list users")
	}
	return users, nil
}

// GetUser looks a user up in the cached list. found is false for unknown ids.
func (s *Service) GetUser(ctx context.Context, id string) (ports.User, bool, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return ports.User{}, false, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, true, nil
		}
	}
	return ports.User{}, false, nil
}

type PatchUserInput struct {
	Email    *string
	IsEditor *bool
}

// PatchUser changes another user's email or editor flag.
func (s *Service) PatchUser(ctx context.Context, id string, input PatchUserInput) (ports.User, error) {
	if err := checkContext(ctx); err != nil {
		return ports.User{}, err
	}

	update := ports.UserUpdate{IsEditor: input.IsEditor}
	if input.Email != nil {
		email := domainaccount.NormalizeEmail(*input.Email)
		if email != "" {
			if !domainaccount.ValidateEmail(email) {
				return ports.User{}, keyed(domainaccount.ErrEmailInvalid)
			}
			update.Email = &email
		}
	}

	updated, err := s.repo.UpdateUser(ctx, id, update)
	if err != nil {
		if errors.Is(err, domainaccount.ErrUserNotFound) {
			return ports.User{}, errs.Keyed(err, errs.KeyModifyNonexistent)
		}
		return ports.User{}, keyed(errs.Wrapf(err, "patch user %s", id))
	}
	s.refetchUser(ctx, id)

	logging.Info(logContext(ctx, "patch_user"), "user updated", slog.String("user_id", id))
	return updated, nil
}

// GrantRole sets the role flags of the user registered under email.
func (s *Service) GrantRole(ctx context.Context, email string, role domainaccount.Role) (ports.User, error) {
	if err := checkContext(ctx); err != nil {
		return ports.User{}, err
	}

	isEditor, isAdmin := false, false
	switch role {
	case domainaccount.RoleAdmin:
		isAdmin = true
	case domainaccount.RoleEditor:
		isEditor = true
	case domainaccount.RoleUser:
	default:
		return ports.User{}, keyed(domainaccount.ErrUnknownRole)
	}

	var updated ports.User
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetUserByEmail(txCtx, domainaccount.NormalizeEmail(email))
		if err != nil {
			return err
		}
		updated, err = s.repo.UpdateUser(txCtx, user.ID, ports.UserUpdate{IsEditor: &isEditor, IsAdmin: &isAdmin})
		return err
	}); err != nil {
		if errors.Is(err, domainaccount.ErrUserNotFound) {
			return ports.User{}, errs.Keyed(err, errs.KeyModifyNonexistent)
		}
		return ports.User{}, errs.Wrapf(err, "grant %s to %s", role, strings.TrimSpace(email))
	}
	s.refetchUser(ctx, updated.ID)

	logging.Info(logContext(ctx, "grant_role"), "role granted",
		slog.String("user_id", updated.ID), slog.String("role", string(role)))
	return updated, nil
}

// createUser stores a new account and appends it to the users cache.
func (s *Service) createUser(ctx context.Context, email string, passwordHash string) (ports.User, error) {
	isAdmin := s.IsAdminEmail(email)
	created, err := s.repo.CreateUser(ctx, ports.UserCreate{
		Email:        email,
		PasswordHash: passwordHash,
		IsEditor:     isAdmin,
		IsAdmin:      isAdmin,
	})
	if err != nil {
		return ports.User{}, keyed(errs.Wrap(err, "create user"))
	}
	s.users.ForceAdd(created)

	logging.Info(logContext(ctx, "create_user"), "user created",
		slog.String("user_id", created.ID), slog.Bool("admin", isAdmin))
	return created, nil
}
