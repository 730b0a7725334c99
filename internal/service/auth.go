package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/metrics"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
	"github.com/iliyamo/theatre-reservation/internal/throttle"
	"github.com/iliyamo/theatre-reservation/internal/utils"
)

// TokenPair is returned by register, login and refresh.  Refresh.Raw is
// the only copy of the refresh token; the database keeps its hash.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService registers users and issues tokens.  Every credential check
// passes through the login throttle.
type AuthService struct {
	cfg      config.Config
	users    *repository.UserRepo
	tokens   *repository.TokenRepo
	throttle *throttle.Throttle
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewAuthService wires the service.  log may be nil.
func NewAuthService(cfg config.Config, db *sql.DB, th *throttle.Throttle, log logrus.FieldLogger) *AuthService {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &AuthService{
		cfg:      cfg,
		users:    repository.NewUserRepo(db),
		tokens:   repository.NewTokenRepo(db),
		throttle: th,
		log:      log,
		now:      time.Now,
	}
}

// Register creates a CUSTOMER account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, TokenPair{}, invalid("email", "a valid email is required")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, TokenPair{}, invalid("password", "%s", err.Error())
	}
	u, err := s.createUser(ctx, email, password, model.RoleCustomer)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issue(ctx, u)
	return u, pair, err
}

func (s *AuthService) createUser(ctx context.Context, email, password, role string) (*model.User, error) {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, invalid("email", "a user with this email already exists")
		}
		return nil, err
	}
	return u, nil
}

// Login verifies credentials.  A locked identity gets a *throttle.LockedError
// without the password being checked.  Failures are counted per email even
// when the email is unknown.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, invalid("email", "email and password are required")
	}
	if err := s.throttle.Check(ctx, email); err != nil {
		if errors.Is(err, throttle.ErrLocked) {
			metrics.LoginAttempts.WithLabelValues("locked").Inc()
			return nil, TokenPair{}, err
		}
		// Store outage: keep logins working.
		s.log.WithError(err).Warn("login throttle unavailable")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, err
	}
	if u == nil || !utils.VerifyPassword(u.PasswordHash, password) {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		if _, ferr := s.throttle.Fail(ctx, email); ferr != nil {
			s.log.WithError(ferr).Warn("login throttle unavailable")
		}
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if err := s.throttle.Succeed(ctx, email); err != nil {
		s.log.WithError(err).Warn("login throttle unavailable")
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	pair, err := s.issue(ctx, u)
	return u, pair, err
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*model.User, TokenPair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, TokenPair{}, invalid("refresh_token", "refresh_token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash, s.now()); err != nil {
		return nil, TokenPair{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	pair, err := s.issue(ctx, u)
	return u, pair, err
}

// Logout revokes one refresh token.  Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid("refresh_token", "refresh_token is required")
	}
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw), s.now())
}

// Me loads the user behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	return u, notFound(err)
}

// EnsureAdmin creates an ADMIN account for email, or promotes the existing
// one.  It is a no-op when email is empty.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return nil
	}
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsAdmin() {
			return nil
		}
		return s.users.SetRole(ctx, u.ID, model.RoleAdmin)
	case errors.Is(err, repository.ErrNotFound):
		if password == "" {
			return invalid("password", "admin password is required")
		}
		_, err := s.createUser(ctx, email, password, model.RoleAdmin)
		return err
	default:
		return err
	}
}

func (s *AuthService) issue(ctx context.Context, u *model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
