package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/auth"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/admins"
)

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z6L0cDGaOHj2D5m8K1oSWV0e")

// AuthService authenticates admins and issues access tokens.
type AuthService struct {
	repo     admins.Repository
	secret   []byte
	validity time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewAuthService(repo admins.Repository, secret string, validity time.Duration, logger logging.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		secret:   []byte(secret),
		validity: validity,
		logger:   logger.With("module", "auth"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HashPassword returns the bcrypt hash stored for an admin password.
func HashPassword(password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: empty password", common.ErrArgumentInvalid)
	}
	return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
}

// EnsureAdmin creates the configured admin or brings its password hash in
// line with configuration. An empty hash disables seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		s.logger.Warn(ctx, "admin credentials not configured, login disabled")
		return nil
	}
	hash := []byte(passwordHash)
	if _, err := bcrypt.Cost(hash); err != nil {
		return fmt.Errorf("%w: admin password hash: %v", common.ErrArgumentInvalid, err)
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		created, err := s.repo.Create(ctx, &models.Admin{
			ID:           models.NewID(),
			Username:     username,
			PasswordHash: hash,
			CreatedAt:    s.now(),
		})
		if err != nil {
			return storageError("create admin", err)
		}
		if created {
			s.logger.Info(ctx, "admin seeded", "username", username)
		}
		return nil
	case err != nil:
		return storageError("get admin", err)
	}

	if bytes.Equal(existing.PasswordHash, hash) {
		return nil
	}
	if err := s.repo.UpdatePassword(ctx, existing.ID, hash); err != nil {
		return storageError("update admin password", err)
	}
	s.logger.Info(ctx, "admin password updated", "username", username)
	return nil
}

// Login verifies the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", common.ErrorUnauthorized
		}
		return "", storageError("get admin", err)
	}
	if err := bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(password)); err != nil {
		s.logger.Warn(ctx, "login failed", "username", username)
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(admin.ID, s.secret, s.validity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// Authenticate validates a bearer token and returns the admin id.
func (s *AuthService) Authenticate(token string) (string, error) {
	return auth.GetSubjectFromToken(token, s.secret)
}

// Me returns the admin a validated token was issued to.
func (s *AuthService) Me(ctx context.Context, id string) (*models.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, storageError("get admin", err)
	}
	return admin, nil
}
