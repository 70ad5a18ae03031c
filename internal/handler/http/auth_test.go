package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

func TestLoginThenUseToken(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("Login", mock.Anything, "dana@example.com", "secret").
		Return(&domain.Identity{SessionToken: "fresh", UserID: 77, Email: "dana@example.com"}, nil)
	env.backend.On("ActiveCartID", mock.Anything, int64(77)).Return(int64(5), nil)
	env.backend.On("ActiveCartItems", mock.Anything, int64(77)).Return([]domain.CartLine{}, nil)

	rec := env.serve(newRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "dana@example.com", "password": "secret",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	var got loginView
	decodeData(t, rec, &got)
	assert.Equal(t, "fresh", got.SessionToken)
	assert.Equal(t, int64(77), got.User.UserID)

	req := newRequest(t, http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer fresh")
	rec = env.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart cartView
	decodeData(t, rec, &cart)
	assert.Equal(t, int64(5), cart.CartID)
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(newRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "not-an-email"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("Login", mock.Anything, "dana@example.com", "wrong").Return(nil, apperrors.Unauthorized("bad credentials"))

	rec := env.serve(newRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "dana@example.com", "password": "wrong",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("Logout", mock.Anything, testToken).Return(errors.New("backend down"))

	rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.identities.GetByToken(context.Background(), testToken)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	rec = env.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.serve(newRequest(t, http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, env.serve(newRequest(t, http.MethodGet, "/health/ready", nil)).Code)
	assert.Equal(t, http.StatusOK, env.serve(newRequest(t, http.MethodGet, "/metrics", nil)).Code)
}
