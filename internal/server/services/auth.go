// Package services contains server-side business logic. This file implements
// AuthService: signup, login, refresh-token rotation, logout and the access
// token gate used by every protected endpoint.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a single-use refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// AuthObserver receives the outcome of every auth flow. Outcomes are
// "success", "rejected" and "error".
type AuthObserver interface {
	ObserveAuth(operation, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveAuth(string, string) {}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithObserver reports flow outcomes to o.
func WithObserver(o AuthObserver) AuthOption {
	return func(s *AuthService) { s.observer = o }
}

// WithClock makes ledger expiry checks read time from now.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// AuthService orchestrates the credential store, the token codec and the
// refresh ledger. Every flow that writes runs in a single transaction.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	codec       *auth.Codec
	log         logging.Logger
	observer    AuthObserver
	now         func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher *cryptox.PasswordHasher,
	codec *auth.Codec, log logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		log:         log.With("component", "auth"),
		observer:    nopObserver{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new active user with the default role and returns a
// fresh token pair. The user row and the refresh record commit together.
func (s *AuthService) Signup(ctx context.Context, email, password string, fullName *string) (*TokenPair, error) {
	pair, err := s.signup(ctx, email, password, fullName)
	return pair, s.finish(ctx, "signup", err)
}

func (s *AuthService) signup(ctx context.Context, email, password string, fullName *string) (*TokenPair, error) {
	_, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		if cryptox.IsTooLong(err) {
			return nil, common.ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:          email,
			FullName:       fullName,
			HashedPassword: digest,
			Role:           models.RoleUser,
			IsActive:       true,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrDuplicateEmail
			}
			return fmt.Errorf("create user: %w", err)
		}

		pair, err = s.issuePair(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Login verifies credentials. Unknown email and wrong password are reported
// identically, and bcrypt runs in both cases.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	pair, err := s.login(ctx, email, password)
	return pair, s.finish(ctx, "login", err)
}

func (s *AuthService) login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrInactiveAccount
	}

	return s.issuePair(ctx, s.db, user.ID)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked in the same transaction that records its replacement, so it can be
// used at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	return pair, s.finish(ctx, "refresh", err)
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	userID, ok := parseSubject(claims.Subject)
	if !ok || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ledger := s.repomanager.RefreshTokens(tx)

		record, err := ledger.FindByJTI(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrTokenRevokedOrUnknown
			}
			return fmt.Errorf("find refresh token: %w", err)
		}
		if !record.Usable(s.now()) || record.UserID != userID {
			return common.ErrTokenRevokedOrUnknown
		}

		revoked, err := ledger.Revoke(ctx, claims.ID)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if !revoked {
			// lost a race with a concurrent refresh or logout
			return common.ErrTokenRevokedOrUnknown
		}

		pair, err = s.issuePair(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes every outstanding refresh record of the token's subject.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.finish(ctx, "logout", s.logout(ctx, refreshToken))
}

func (s *AuthService) logout(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Decode(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return common.ErrInvalidToken
	}
	userID, ok := parseSubject(claims.Subject)
	if !ok {
		return common.ErrInvalidToken
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.RefreshTokens(tx).RevokeAllForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
		s.log.Debug(ctx, "refresh tokens revoked", "user_id", userID, "count", n)
		return nil
	})
}

// Authenticate turns an access token into the active user it was issued
// for. Every rejection is common.ErrorUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.codec.Decode(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	userID, ok := parseSubject(claims.Subject)
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "authenticate: lookup user", "error", err)
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// RequireAdmin rejects authenticated users that are not admins.
func (s *AuthService) RequireAdmin(user *models.User) error {
	if user == nil {
		return common.ErrorUnauthorized
	}
	if !user.IsAdmin() {
		return common.ErrorForbidden
	}
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, db dbx.DBTX, userID int64) (*TokenPair, error) {
	subject := strconv.FormatInt(userID, 10)

	access, err := s.codec.Issue(subject, auth.TokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(subject, auth.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if _, err := s.repomanager.RefreshTokens(db).Create(ctx, userID, refresh.JTI, refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("record refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		TokenType:    common.TokenTypeBearer,
	}, nil
}

var expectedAuthErrors = []error{
	common.ErrInvalidCredentials,
	common.ErrInactiveAccount,
	common.ErrDuplicateEmail,
	common.ErrPasswordTooLong,
	common.ErrInvalidToken,
	common.ErrTokenRevokedOrUnknown,
}

// finish records the outcome of a flow and hides unexpected failures behind
// common.ErrorInternal after logging them.
func (s *AuthService) finish(ctx context.Context, op string, err error) error {
	if err == nil {
		s.observer.ObserveAuth(op, "success")
		return nil
	}
	for _, expected := range expectedAuthErrors {
		if errors.Is(err, expected) {
			s.observer.ObserveAuth(op, "rejected")
			s.log.Info(ctx, "auth flow rejected", "operation", op, "reason", expected.Error())
			return expected
		}
	}
	s.observer.ObserveAuth(op, "error")
	s.log.Error(ctx, "auth flow failed", "operation", op, "error", err)
	return common.ErrorInternal
}

func parseSubject(sub string) (int64, bool) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
