package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"appcatalog/internal/bootstrap/logging"
	domainaccount "appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
	"appcatalog/internal/querycache"
)

const (
	cacheName = "users"

	sessionKeyPrefix      = "session:"
	verificationKeyPrefix = "verify:"
)

// Settings carries the account policy taken from configuration.
type Settings struct {
	UsersTTL            time.Duration
	AdminEmails         []string
	AllowedEmailDomains []string
	SessionTTL          time.Duration
	VerificationTTL     time.Duration
	PublicBaseURL       string
}

type Service struct {
	repo     ports.UserRepository
	uow      ports.UnitOfWork
	kv       ports.Cache
	mailer   ports.Mailer
	hasher   ports.PasswordHasher
	settings Settings
	users    *querycache.Cache[ports.User]
	newToken func() string
}

// NewService builds the account service and its users query cache. opts are
// passed to the cache.
func NewService(
	repo ports.UserRepository,
	uow ports.UnitOfWork,
	kv ports.Cache,
	mailer ports.Mailer,
	hasher ports.PasswordHasher,
	settings Settings,
	opts ...querycache.Option,
) (*Service, error) {
	switch {
	case repo == nil:
		return nil, errors.New("user repository is required")
	case uow == nil:
		return nil, errors.New("account unit of work is required")
	case kv == nil:
		return nil, errors.New("key-value store is required")
	case mailer == nil:
		return nil, errors.New("mailer is required")
	case hasher == nil:
		return nil, errors.New("password hasher is required")
	}

	users, err := querycache.New(settings.UsersTTL, repo.ListUsers, append([]querycache.Option{querycache.WithName(cacheName)}, opts...)...)
	if err != nil {
		return nil, errs.Wrap(err, "create users cache")
	}

	settings.PublicBaseURL = strings.TrimRight(settings.PublicBaseURL, "/")
	return &Service{
		repo:     repo,
		uow:      uow,
		kv:       kv,
		mailer:   mailer,
		hasher:   hasher,
		settings: settings,
		users:    users,
		newToken: uuid.NewString,
	}, nil
}

// Cache exposes the users cache for stats and tests.
func (s *Service) Cache() *querycache.Cache[ports.User] { return s.users }

// IsAdminEmail reports whether email is configured as an administrator.
func (s *Service) IsAdminEmail(email string) bool {
	return domainaccount.IsAdminEmail(email, s.settings.AdminEmails)
}

func matchID(id string) querycache.Predicate[ports.User] {
	return func(user ports.User) bool { return user.ID == id }
}

func (s *Service) refetchUser(ctx context.Context, id string) {
	if err := s.users.RefetchOne(ctx, matchID(id), func(ctx context.Context, current ports.User) (ports.User, error) {
		return s.repo.GetUser(ctx, current.ID)
	}); err != nil {
		logging.Warn(logContext(ctx, "refetch"), "refetch user failed, invalidating cache",
			slog.String("user_id", id), slog.Any("err", errs.Loggable(err)))
		s.users.Invalidate()
	}
}

func logContext(ctx context.Context, op string) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "usecase.account"), slog.String("op", op))
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

// keyed attaches the client-facing key of a domain error.
func keyed(err error) error {
	switch {
	case errors.Is(err, domainaccount.ErrEmailInvalid):
		return errs.Keyed(err, errs.KeyEmailInvalid)
	case errors.Is(err, domainaccount.ErrPasswordInvalid):
		return errs.Keyed(err, errs.KeyPasswordInvalid)
	case errors.Is(err, domainaccount.ErrEmailDomainNotAllowed):
		return errs.Keyed(err, errs.KeyEmailDomainNotAllowed)
	case errors.Is(err, domainaccount.ErrEmailTaken):
		return errs.Keyed(err, errs.KeyEmailTaken)
	case errors.Is(err, domainaccount.ErrBadCredentials):
		return errs.Keyed(err, errs.KeyBadCredentials)
	case errors.Is(err, domainaccount.ErrSessionInvalid):
		return errs.Keyed(err, errs.KeyUnauthorized)
	case errors.Is(err, domainaccount.ErrVerificationInvalid):
		return errs.Keyed(err, errs.KeyVerificationInvalid)
	case errors.Is(err, domainaccount.ErrUnknownRole):
		return errs.Keyed(err, errs.KeyRequestBodyInvalid)
	default:
		return err
	}
}
