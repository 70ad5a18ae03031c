package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_Envelope(t *testing.T) {
	err := ParseResponseError(response(http.StatusNotFound,
		`{"error":{"code":"NOT_FOUND","message":"cart 9 not found"}}`), "price-backend")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "cart 9 not found")
}

func TestParseResponseError_SpringBody(t *testing.T) {
	err := ParseResponseError(response(http.StatusBadRequest,
		`{"timestamp":"2024-01-01T00:00:00","status":400,"error":"Bad Request","message":"storeIds must not be empty","path":"/api/itemPrice/compare"}`),
		"price-backend")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "storeIds must not be empty")
}

func TestParseResponseError_SpringBodyWithoutMessage(t *testing.T) {
	err := ParseResponseError(response(http.StatusConflict, `{"status":409,"error":"Conflict"}`), "price-backend")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "Conflict")
}

func TestParseResponseError_PlainText(t *testing.T) {
	err := ParseResponseError(response(http.StatusBadRequest, "Missing parameter: city"), "price-backend")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Missing parameter: city")
}

func TestParseResponseError_EmptyBodyUsesStatusText(t *testing.T) {
	err := ParseResponseError(response(http.StatusUnauthorized, ""), "price-backend")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestMapDownstreamError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusGone, apperrors.ErrNotFound},
		{http.StatusBadRequest, apperrors.ErrInvalidInput},
		{http.StatusUnprocessableEntity, apperrors.ErrInvalidInput},
		{http.StatusConflict, apperrors.ErrConflict},
		{http.StatusForbidden, apperrors.ErrUnauthorized},
		{http.StatusInternalServerError, apperrors.ErrNetwork},
		{http.StatusTeapot, apperrors.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.ErrorIs(t, mapDownstreamError(tt.status, "boom", "price-backend"), tt.want)
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(502))
	assert.False(t, IsClientError(200))
}
