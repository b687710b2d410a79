// Package services holds the application services of gophcal. This file
// implements AuthService: registration, login, password and email changes,
// and the remembered session used to resume between runs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/auth"
	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/config"
	"github.com/dmitrijs2005/gophcal/internal/cryptox"
	"github.com/dmitrijs2005/gophcal/internal/dbx"
	"github.com/dmitrijs2005/gophcal/internal/logging"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophcal/internal/validation"
)

const sessionTokenKey = "session_token"

// AuthService verifies credentials against the credential store and issues
// sessions. Unknown usernames and wrong passwords fail the same way.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.Hasher
	secret      []byte
	ttl         time.Duration
	log         logging.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, h cryptox.Hasher, cfg *config.Config, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop{}
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      h,
		secret:      []byte(cfg.SessionSecret),
		ttl:         cfg.SessionTTL,
		log:         log.With("service", "auth"),
		now:         time.Now,
	}
}

// Register creates an account. Nothing is written when validation fails or
// the username or email is already taken.
func (s *AuthService) Register(ctx context.Context, username, password, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validation.ValidateRegistration(username, password, email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(ctx, "hash password", "error", err)
		return common.ErrorInternal
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if _, err := s.repomanager.Users(s.db).Create(ctx, user); err != nil {
		return s.storeErr(ctx, "register", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", username)
	return nil
}

// Login returns a session for valid credentials and common.ErrorUnauthorized
// otherwise.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same hashing work as a real check
			_ = s.hasher.Verify(s.dummy(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.storeErr(ctx, "login", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			s.log.Warn(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		}
		return nil, common.ErrorUnauthorized
	}

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.Session, error) {
	token, err := auth.GenerateToken(user.ID, user.Username, s.secret, s.ttl)
	if err != nil {
		s.log.Error(ctx, "sign session token", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &models.Session{
		UserID:   user.ID,
		Username: user.Username,
		Token:    token,
		IssuedAt: s.now(),
	}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		seed, _ := common.MakeRandHexString(16)
		if h, err := s.hasher.Hash(seed); err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// ChangePassword re-verifies oldPassword and stores a hash of newPassword.
// Both steps run in one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, sess *models.Session, oldPassword, newPassword string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		current, err := repo.GetPasswordHash(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if err := s.hasher.Verify(current, oldPassword); err != nil {
			return common.ErrorUnauthorized
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return common.ErrorInternal
		}
		return repo.UpdatePassword(ctx, sess.UserID, hash)
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return err
		}
		if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrorInternal) &&
			!errors.Is(err, common.ErrStoreUnavailable) {
			// begin or commit failed
			err = dbx.StoreError(err)
		}
		return s.storeErr(ctx, "change password", err)
	}

	s.log.Info(ctx, "password changed", "user_id", sess.UserID)
	return nil
}

func (s *AuthService) UpdateEmail(ctx context.Context, sess *models.Session, email string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).UpdateEmail(ctx, sess.UserID, email); err != nil {
		return s.storeErr(ctx, "update email", err)
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, sess *models.Session) (*models.User, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	u, err := s.repomanager.Users(s.db).GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, s.storeErr(ctx, "current user", err)
	}
	return u, nil
}

// RememberSession stores the session token so the next run can resume it.
func (s *AuthService) RememberSession(ctx context.Context, sess *models.Session) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.repomanager.Metadata(s.db).Set(ctx, sessionTokenKey, []byte(sess.Token)); err != nil {
		return s.storeErr(ctx, "remember session", err)
	}
	return nil
}

// ResumeSession restores the remembered session. It returns
// common.ErrNoSession when there is nothing usable to resume; stale tokens
// are forgotten on the way.
func (s *AuthService) ResumeSession(ctx context.Context) (*models.Session, error) {
	meta := s.repomanager.Metadata(s.db)

	raw, err := meta.Get(ctx, sessionTokenKey)
	if err != nil {
		return nil, s.storeErr(ctx, "resume session", err)
	}
	if raw == nil {
		return nil, common.ErrNoSession
	}

	claims, err := auth.ParseToken(string(raw), s.secret)
	if err != nil {
		s.log.Info(ctx, "remembered session dropped", "reason", err)
		_ = meta.Delete(ctx, sessionTokenKey)
		return nil, common.ErrNoSession
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = meta.Delete(ctx, sessionTokenKey)
			return nil, common.ErrNoSession
		}
		return nil, s.storeErr(ctx, "resume session", err)
	}

	issued := s.now()
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return &models.Session{UserID: user.ID, Username: user.Username, Token: string(raw), IssuedAt: issued}, nil
}

// Logout forgets the remembered session.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.repomanager.Metadata(s.db).Delete(ctx, sessionTokenKey); err != nil {
		return s.storeErr(ctx, "logout", err)
	}
	return nil
}

func (s *AuthService) storeErr(ctx context.Context, op string, err error) error {
	return logStoreErr(ctx, s.log, op, err)
}

func requireSession(sess *models.Session) error {
	if sess == nil || sess.UserID == 0 {
		return common.ErrorUnauthorized
	}
	return nil
}

// logStoreErr logs store failures and passes every error through unchanged.
func logStoreErr(ctx context.Context, log logging.Logger, op string, err error) error {
	if errors.Is(err, common.ErrStoreUnavailable) || errors.Is(err, common.ErrorInternal) {
		log.Error(ctx, op+" failed", "error", err)
	}
	return err
}
