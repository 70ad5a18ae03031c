package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

func TestStoreRoutes_RequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(newRequest(t, http.MethodGet, "/api/v1/stores/selection", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_SESSION", decodeEnvelope(t, rec).Error.Code)
}

func TestToggle_CapAtFourStores(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{"1", "2", "3", "4"} {
		rec := env.do(t, http.MethodPut, "/api/v1/stores/selection/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodPut, "/api/v1/stores/selection/5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got selectionView
	decodeData(t, rec, &got)
	assert.Equal(t, domain.SelectionRejected, got.Change)
	assert.Equal(t, []int64{1, 2, 3, 4}, got.StoreIDs)
	assert.True(t, got.Full)

	rec = env.do(t, http.MethodPut, "/api/v1/stores/selection/2", nil)
	decodeData(t, rec, &got)
	assert.Equal(t, domain.SelectionRemoved, got.Change)
	assert.Equal(t, []int64{1, 3, 4}, got.StoreIDs)

	rec = env.do(t, http.MethodDelete, "/api/v1/stores/selection", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/stores/selection", nil)
	decodeData(t, rec, &got)
	assert.Empty(t, got.StoreIDs)
}

func TestToggle_InvalidStoreID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/api/v1/stores/selection/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBrowseAndNextPage(t *testing.T) {
	env := newTestEnv(t)
	env.backend.On("Stores", mock.Anything, 0, 2).Return([]domain.Store{{ID: 1}, {ID: 2}}, nil).Once()
	env.backend.On("Stores", mock.Anything, 1, 2).Return([]domain.Store{}, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/v1/stores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var b domain.StoreBrowse
	decodeData(t, rec, &b)
	assert.Len(t, b.Stores, 2)
	assert.True(t, b.HasMore)

	rec = env.do(t, http.MethodPost, "/api/v1/stores/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &b)
	assert.False(t, b.HasMore)

	rec = env.do(t, http.MethodDelete, "/api/v1/stores", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	q := domain.StoreQuery{City: "Haifa", Chain: "Shufersal"}
	env.backend.On("SearchStores", mock.Anything, q, 0, 2).Return([]domain.Store{{ID: 9, City: "Haifa"}}, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/stores/search?city=Haifa&chain=Shufersal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.StoreSearch
	decodeData(t, rec, &res)
	require.Len(t, res.Stores, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/stores/search/last", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &res)
	assert.Equal(t, q, res.Query)
}

func TestSearch_NoFilters(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/stores/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.StoreSearch
	decodeData(t, rec, &res)
	assert.Empty(t, res.Stores)
	env.backend.AssertNotCalled(t, "SearchStores", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
