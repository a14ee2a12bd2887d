package account

import (
	"context"
	"errors"
	"time"

	domainaccount "appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

type Session struct {
	Token     string
	User      ports.User
	ExpiresAt time.Time
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, email string, password string) (Session, error) {
	if err := checkContext(ctx); err != nil {
		return Session{}, err
	}

	user, err := s.repo.GetUserByEmail(ctx, domainaccount.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domainaccount.ErrUserNotFound) {
			return Session{}, keyed(domainaccount.ErrBadCredentials)
		}
		return Session{}, errs.Wrap(err, "load user")
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return Session{}, keyed(err)
	}
	return s.openSession(ctx, user)
}

func (s *Service) openSession(ctx context.Context, user ports.User) (Session, error) {
	token := s.newToken()
	if err := s.kv.Set(ctx, sessionKeyPrefix+token, user.ID, s.settings.SessionTTL); err != nil {
		return Session{}, errs.Wrap(err, "store session")
	}

	session := Session{Token: token, User: user}
	if s.settings.SessionTTL > 0 {
		session.ExpiresAt = time.Now().UTC().Add(s.settings.SessionTTL)
	}
	return session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	if err := s.kv.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return errs.Wrap(err, "delete session")
	}
	return nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (ports.User, error) {
	if err := checkContext(ctx); err != nil {
		return ports.User{}, err
	}
	if token == "" {
		return ports.User{}, keyed(domainaccount.ErrSessionInvalid)
	}

	userID, found, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return ports.User{}, errs.Wrap(err, "load session")
	}
	if !found {
		return ports.User{}, keyed(domainaccount.ErrSessionInvalid)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domainaccount.ErrUserNotFound) {
			_ = s.kv.Delete(ctx, sessionKeyPrefix+token)
			return ports.User{}, keyed(domainaccount.ErrSessionInvalid)
		}
		return ports.User{}, errs.Wrap(err, "load session user")
	}
	return user, nil
}
