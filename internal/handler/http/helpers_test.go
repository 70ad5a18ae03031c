package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/event"
	redisrepo "github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository/redis"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/health"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httputil"
	pkgkafka "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/kafka"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/middleware"
)

// ============================================================================
// Price backend mock
// ============================================================================

// mockBackend implements every backend interface the services depend on.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ActiveCartID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBackend) ActiveCartItems(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	args := m.Called(ctx, userID)
	lines, _ := args.Get(0).([]domain.CartLine)
	return lines, args.Error(1)
}

func (m *mockBackend) CartItems(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	args := m.Called(ctx, cartID)
	lines, _ := args.Get(0).([]domain.CartLine)
	return lines, args.Error(1)
}

func (m *mockBackend) AddItem(ctx context.Context, cartID int64, itemID string, quantity int) error {
	return m.Called(ctx, cartID, itemID, quantity).Error(0)
}

func (m *mockBackend) RemoveItem(ctx context.Context, cartID int64, itemID string, quantity int) error {
	return m.Called(ctx, cartID, itemID, quantity).Error(0)
}

func (m *mockBackend) ArchiveCart(ctx context.Context, cartID int64, name string) (domain.Cart, error) {
	args := m.Called(ctx, cartID, name)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockBackend) ActivateCart(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *mockBackend) DeleteCart(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *mockBackend) CartHistory(ctx context.Context, userID int64) ([]domain.Cart, error) {
	args := m.Called(ctx, userID)
	carts, _ := args.Get(0).([]domain.Cart)
	return carts, args.Error(1)
}

func (m *mockBackend) Stores(ctx context.Context, page, size int) ([]domain.Store, error) {
	args := m.Called(ctx, page, size)
	stores, _ := args.Get(0).([]domain.Store)
	return stores, args.Error(1)
}

func (m *mockBackend) SearchStores(ctx context.Context, q domain.StoreQuery, page, size int) ([]domain.Store, error) {
	args := m.Called(ctx, q, page, size)
	stores, _ := args.Get(0).([]domain.Store)
	return stores, args.Error(1)
}

func (m *mockBackend) Compare(ctx context.Context, userID, cartID int64, storeIDs []int64) ([]domain.StoreResult, error) {
	args := m.Called(ctx, userID, cartID, storeIDs)
	results, _ := args.Get(0).([]domain.StoreResult)
	return results, args.Error(1)
}

func (m *mockBackend) Alternatives(ctx context.Context, storeID int64, itemID string) ([]domain.Alternative, error) {
	args := m.Called(ctx, storeID, itemID)
	alts, _ := args.Get(0).([]domain.Alternative)
	return alts, args.Error(1)
}

func (m *mockBackend) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*domain.Identity)
	return identity, args.Error(1)
}

func (m *mockBackend) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// ============================================================================
// In-memory identity repository
// ============================================================================

type memoryIdentities struct {
	mu   sync.Mutex
	byID map[string]domain.Identity
}

func newMemoryIdentities() *memoryIdentities {
	return &memoryIdentities{byID: make(map[string]domain.Identity)}
}

func (m *memoryIdentities) GetByToken(_ context.Context, token string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.byID[token]
	if !ok {
		return nil, apperrors.NotFound("session", token)
	}
	return &identity, nil
}

func (m *memoryIdentities) Save(_ context.Context, identity *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[identity.SessionToken] = *identity
	return nil
}

func (m *memoryIdentities) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, token)
	return nil
}

// ============================================================================
// Test environment
// ============================================================================

const (
	testToken   = "session-1"
	testUserID  = int64(42)
	testSession = "tab-1"
)

type testEnv struct {
	backend    *mockBackend
	identities *memoryIdentities
	router     http.Handler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := testLogger()
	producer := event.NewProducer(pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(nil), logger), logger)

	backend := new(mockBackend)
	identities := newMemoryIdentities()
	require.NoError(t, identities.Save(context.Background(), &domain.Identity{SessionToken: testToken, UserID: testUserID}))

	carts := service.NewCartService(backend,
		redisrepo.NewActiveCartCache(client, time.Hour),
		redisrepo.NewCartSnapshotRepository(client, time.Hour),
		producer, logger)
	selectionRepo := redisrepo.NewSelectionRepository(client, time.Hour)
	comparisonCache := redisrepo.NewComparisonCache(client, time.Hour)

	svcs := Services{
		Carts:       carts,
		Selection:   service.NewSelectionService(backend, selectionRepo, redisrepo.NewBrowseRepository(client, time.Hour), 2, logger),
		Comparisons: service.NewComparisonService(backend, carts, selectionRepo, comparisonCache, producer, logger),
		Sessions:    service.NewSessionService(comparisonCache, logger),
		Auth:        service.NewAuthService(backend, identities, logger),
	}

	router := NewRouter(svcs, health.NewHandler(), RouterConfig{CORS: middleware.DefaultCORSConfig()}, logger)
	return &testEnv{backend: backend, identities: identities, router: router}
}

// do sends a request authenticated as testUserID within testSession.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set(middleware.SessionHeader, testSession)
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// envelope mirrors httputil.Response with the data left raw.
type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error, "unexpected error envelope")
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func cartLine(itemID string, qty int) domain.CartLine {
	return domain.CartLine{ItemID: itemID, ItemName: "item " + itemID, Quantity: qty}
}

// seedActiveCart makes the backend report cart 7 with lines for testUserID.
func (e *testEnv) seedActiveCart(lines ...domain.CartLine) {
	e.backend.On("ActiveCartID", mock.Anything, testUserID).Return(int64(7), nil)
	e.backend.On("ActiveCartItems", mock.Anything, testUserID).Return(lines, nil)
}
