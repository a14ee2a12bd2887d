package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"appcatalog/internal/bootstrap/logging"
	domainaccount "appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

type verificationAction string

const (
	actionSignUp      verificationAction = "signUp"
	actionSetPassword verificationAction = "setPassword"
)

// pendingVerification is stored in the key-value store until the emailed
// link is followed. Only password hashes are stored.
type pendingVerification struct {
	Action       verificationAction `json:"action"`
	Email        string             `json:"email"`
	UserID       string             `json:"userId,omitempty"`
	PasswordHash string             `json:"passwordHash"`
}

// SignUpResult is either an account created immediately (admin emails) or a
// pending email verification.
type SignUpResult struct {
	Session *Session
	Pending bool
}

// VerificationResult describes what a followed link did. Session is set when
// an account was created.
type VerificationResult struct {
	Action  string
	Session *Session
}

// SignUp registers email. Configured admin emails skip validation and get an
// account and session right away; everyone else must verify the address.
func (s *Service) SignUp(ctx context.Context, email string, password string) (SignUpResult, error) {
	if err := checkContext(ctx); err != nil {
		return SignUpResult{}, err
	}
	email = domainaccount.NormalizeEmail(email)

	if s.IsAdminEmail(email) {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return SignUpResult{}, keyed(errs.Wrap(err, "hash password"))
		}
		user, err := s.createUser(ctx, email, hash)
		if err != nil {
			return SignUpResult{}, err
		}
		session, err := s.openSession(ctx, user)
		if err != nil {
			return SignUpResult{}, err
		}
		return SignUpResult{Session: &session}, nil
	}

	switch {
	case !domainaccount.ValidateEmail(email):
		return SignUpResult{}, keyed(domainaccount.ErrEmailInvalid)
	case !domainaccount.ValidatePasswordFormat(password):
		return SignUpResult{}, keyed(domainaccount.ErrPasswordInvalid)
	case !domainaccount.IsAllowedDomain(email, s.settings.AllowedEmailDomains):
		return SignUpResult{}, keyed(domainaccount.ErrEmailDomainNotAllowed)
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return SignUpResult{}, keyed(domainaccount.ErrEmailTaken)
	} else if !errors.Is(err, domainaccount.ErrUserNotFound) {
		return SignUpResult{}, errs.Wrap(err, "check email")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return SignUpResult{}, keyed(errs.Wrap(err, "hash password"))
	}
	if err := s.startVerification(ctx, pendingVerification{
		Action:       actionSignUp,
		Email:        email,
		PasswordHash: hash,
	}, "sign up"); err != nil {
		return SignUpResult{}, err
	}
	return SignUpResult{Pending: true}, nil
}

// RequestPasswordChange emails user a link that sets the new password.
func (s *Service) RequestPasswordChange(ctx context.Context, user ports.User, password string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if !domainaccount.ValidatePasswordFormat(password) {
		return keyed(domainaccount.ErrPasswordInvalid)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return keyed(errs.Wrap(err, "hash password"))
	}
	return s.startVerification(ctx, pendingVerification{
		Action:       actionSetPassword,
		Email:        user.Email,
		UserID:       user.ID,
		PasswordHash: hash,
	}, "change your password")
}

func (s *Service) startVerification(ctx context.Context, pending pendingVerification, purpose string) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return errs.Wrap(err, "marshal verification")
	}

	token := s.newToken()
	if err := s.kv.Set(ctx, verificationKeyPrefix+token, string(payload), s.settings.VerificationTTL); err != nil {
		return errs.Wrap(err, "store verification")
	}

	link := fmt.Sprintf("%s/api/verify/%s", s.settings.PublicBaseURL, token)
	if err := s.mailer.Send(ctx, ports.Message{
		To:      pending.Email,
		Subject: fmt.Sprintf("Verify your email to %s", purpose),
		Body:    fmt.Sprintf("Follow this link to %s:\n\n%s\n\nThe link expires in %s.", purpose, link, s.settings.VerificationTTL),
	}); err != nil {
		_ = s.kv.Delete(ctx, verificationKeyPrefix+token)
		return errs.Wrap(err, "send verification email")
	}

	logging.Info(logContext(ctx, "verification"), "verification started",
		slog.String("action", string(pending.Action)), slog.String("email", pending.Email))
	return nil
}

// CompleteVerification runs the action behind token. Tokens are single use.
func (s *Service) CompleteVerification(ctx context.Context, token string) (VerificationResult, error) {
	if err := checkContext(ctx); err != nil {
		return VerificationResult{}, err
	}

	key := verificationKeyPrefix + token
	payload, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return VerificationResult{}, errs.Wrap(err, "load verification")
	}
	if !found || token == "" {
		return VerificationResult{}, keyed(domainaccount.ErrVerificationInvalid)
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return VerificationResult{}, errs.Wrap(err, "consume verification")
	}

	var pending pendingVerification
	if err := json.Unmarshal([]byte(payload), &pending); err != nil {
		return VerificationResult{}, keyed(errs.Wrapf(domainaccount.ErrVerificationInvalid, "decode: %v", err))
	}

	switch pending.Action {
	case actionSignUp:
		user, err := s.createUser(ctx, pending.Email, pending.PasswordHash)
		if err != nil {
			return VerificationResult{}, err
		}
		session, err := s.openSession(ctx, user)
		if err != nil {
			return VerificationResult{}, err
		}
		return VerificationResult{Action: string(pending.Action), Session: &session}, nil
	case actionSetPassword:
		if err := s.repo.SetPasswordHash(ctx, pending.UserID, pending.PasswordHash); err != nil {
			if errors.Is(err, domainaccount.ErrUserNotFound) {
				return VerificationResult{}, keyed(errs.Wrap(domainaccount.ErrVerificationInvalid, "user no longer exists"))
			}
			return VerificationResult{}, errs.Wrap(err, "set password")
		}
		s.refetchUser(ctx, pending.UserID)
		logging.Info(logContext(ctx, "verification"), "password changed", slog.String("user_id", pending.UserID))
		return VerificationResult{Action: string(pending.Action)}, nil
	default:
		return VerificationResult{}, keyed(errs.Wrapf(domainaccount.ErrVerificationInvalid, "unknown action %q", pending.Action))
	}
}
