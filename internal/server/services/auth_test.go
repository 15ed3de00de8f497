package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminsRepo struct {
	admin  *models.Admin
	getErr error

	createCalls int
	updated     []byte
}

func (f *fakeAdminsRepo) Create(_ context.Context, a *models.Admin) (bool, error) {
	f.createCalls++
	f.admin = a
	return true, nil
}

func (f *fakeAdminsRepo) GetByUsername(_ context.Context, username string) (*models.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.admin == nil || f.admin.Username != username {
		return nil, common.ErrorNotFound
	}
	return f.admin, nil
}

func (f *fakeAdminsRepo) GetByID(_ context.Context, id string) (*models.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.admin == nil || f.admin.ID != id {
		return nil, common.ErrorNotFound
	}
	return f.admin, nil
}

func (f *fakeAdminsRepo) UpdatePassword(_ context.Context, _ string, hash []byte) error {
	f.updated = hash
	return nil
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	hash := mustHash(t, "s3cret")

	t.Run("seeds missing admin", func(t *testing.T) {
		repo := &fakeAdminsRepo{}
		s := NewAuthService(repo, "k", time.Hour, logging.Nop())

		require.NoError(t, s.EnsureAdmin(ctx, "admin", string(hash)))
		assert.Equal(t, 1, repo.createCalls)
		assert.True(t, models.IsValidID(repo.admin.ID))
	})

	t.Run("updates changed hash", func(t *testing.T) {
		repo := &fakeAdminsRepo{admin: &models.Admin{ID: models.NewID(), Username: "admin", PasswordHash: mustHash(t, "old")}}
		s := NewAuthService(repo, "k", time.Hour, logging.Nop())

		require.NoError(t, s.EnsureAdmin(ctx, "admin", string(hash)))
		assert.Zero(t, repo.createCalls)
		assert.Equal(t, hash, repo.updated)
	})

	t.Run("empty hash disables seeding", func(t *testing.T) {
		repo := &fakeAdminsRepo{}
		s := NewAuthService(repo, "k", time.Hour, logging.Nop())

		require.NoError(t, s.EnsureAdmin(ctx, "admin", ""))
		assert.Zero(t, repo.createCalls)
	})

	t.Run("rejects non-bcrypt hash", func(t *testing.T) {
		s := NewAuthService(&fakeAdminsRepo{}, "k", time.Hour, logging.Nop())
		require.ErrorIs(t, s.EnsureAdmin(ctx, "admin", "plaintext"), common.ErrArgumentInvalid)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &fakeAdminsRepo{getErr: errors.New("db down")}
		s := NewAuthService(repo, "k", time.Hour, logging.Nop())
		require.ErrorIs(t, s.EnsureAdmin(ctx, "admin", string(hash)), common.ErrStorageUnavailable)
	})
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	id := models.NewID()
	repo := &fakeAdminsRepo{admin: &models.Admin{ID: id, Username: "admin", PasswordHash: mustHash(t, "s3cret")}}
	s := NewAuthService(repo, "secret-key", time.Hour, logging.Nop())

	token, err := s.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	sub, err := s.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, id, sub)

	_, err = s.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Authenticate("garbage")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword([]byte("pw"))
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword(h, []byte("pw")))

	_, err = HashPassword(nil)
	require.ErrorIs(t, err, common.ErrArgumentInvalid)
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	admin := &models.Admin{ID: models.NewID(), Username: "admin"}

	s := NewAuthService(&fakeAdminsRepo{admin: admin}, "k", time.Hour, logging.Nop())
	got, err := s.Me(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	_, err = s.Me(ctx, models.NewID())
	assert.ErrorIs(t, err, common.ErrorNotFound)

	broken := NewAuthService(&fakeAdminsRepo{getErr: errors.New("conn reset")}, "k", time.Hour, logging.Nop())
	_, err = broken.Me(ctx, admin.ID)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}
