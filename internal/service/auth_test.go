package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

type mockIdentityRepository struct {
	mock.Mock
}

func (m *mockIdentityRepository) GetByToken(ctx context.Context, token string) (*domain.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *mockIdentityRepository) Save(ctx context.Context, identity *domain.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *mockIdentityRepository) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func TestLogin(t *testing.T) {
	backend := new(mockAuthBackend)
	repo := new(mockIdentityRepository)
	svc := NewAuthService(backend, repo, newTestLogger())

	identity := &domain.Identity{SessionToken: "s-1", UserID: 42, Email: "dana@example.com"}
	backend.On("Login", mock.Anything, "dana@example.com", "secret").Return(identity, nil)
	repo.On("Save", mock.Anything, identity).Return(nil)

	got, err := svc.Login(context.Background(), LoginInput{Email: " dana@example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	repo.AssertExpectations(t)
}

func TestLogin_BackendRejects(t *testing.T) {
	backend := new(mockAuthBackend)
	repo := new(mockIdentityRepository)
	svc := NewAuthService(backend, repo, newTestLogger())

	backend.On("Login", mock.Anything, "dana@example.com", "wrong").Return(nil, apperrors.Unauthorized("bad credentials"))

	_, err := svc.Login(context.Background(), LoginInput{Email: "dana@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLogin_MissingCredentials(t *testing.T) {
	svc := NewAuthService(new(mockAuthBackend), new(mockIdentityRepository), newTestLogger())
	_, err := svc.Login(context.Background(), LoginInput{Email: " "})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestLogout_DropsIdentityEvenWhenBackendFails(t *testing.T) {
	backend := new(mockAuthBackend)
	repo := new(mockIdentityRepository)
	svc := NewAuthService(backend, repo, newTestLogger())

	backend.On("Logout", mock.Anything, "s-1").Return(networkErr)
	repo.On("Delete", mock.Anything, "s-1").Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "s-1"))
	repo.AssertExpectations(t)
}

func TestLogout_NoToken(t *testing.T) {
	svc := NewAuthService(new(mockAuthBackend), new(mockIdentityRepository), newTestLogger())
	err := svc.Logout(context.Background(), "")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestResolve(t *testing.T) {
	repo := new(mockIdentityRepository)
	svc := NewAuthService(new(mockAuthBackend), repo, newTestLogger())

	repo.On("GetByToken", mock.Anything, "s-1").Return(&domain.Identity{SessionToken: "s-1", UserID: 42}, nil)
	repo.On("GetByToken", mock.Anything, "gone").Return(nil, apperrors.NotFound("session", "gone"))

	identity, err := svc.Resolve(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)

	_, err = svc.Resolve(context.Background(), "gone")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
