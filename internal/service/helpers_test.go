package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/event"
	redisrepo "github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository/redis"
	pkgkafka "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/kafka"
)

// --- Mock backends ---

type mockCartBackend struct {
	mock.Mock
}

func (m *mockCartBackend) ActiveCartID(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCartBackend) ActiveCartItems(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *mockCartBackend) CartItems(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *mockCartBackend) AddItem(ctx context.Context, cartID int64, itemID string, quantity int) error {
	return m.Called(ctx, cartID, itemID, quantity).Error(0)
}

func (m *mockCartBackend) RemoveItem(ctx context.Context, cartID int64, itemID string, quantity int) error {
	return m.Called(ctx, cartID, itemID, quantity).Error(0)
}

func (m *mockCartBackend) ArchiveCart(ctx context.Context, cartID int64, name string) (domain.Cart, error) {
	args := m.Called(ctx, cartID, name)
	if fn, ok := args.Get(0).(func(context.Context, int64, string) domain.Cart); ok {
		return fn(ctx, cartID, name), args.Error(1)
	}
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockCartBackend) ActivateCart(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *mockCartBackend) DeleteCart(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

func (m *mockCartBackend) CartHistory(ctx context.Context, userID int64) ([]domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Cart), args.Error(1)
}

type mockStoreBackend struct {
	mock.Mock
}

func (m *mockStoreBackend) Stores(ctx context.Context, page, size int) ([]domain.Store, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Store), args.Error(1)
}

func (m *mockStoreBackend) SearchStores(ctx context.Context, q domain.StoreQuery, page, size int) ([]domain.Store, error) {
	args := m.Called(ctx, q, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Store), args.Error(1)
}

type mockComparisonBackend struct {
	mock.Mock
}

func (m *mockComparisonBackend) Compare(ctx context.Context, userID, cartID int64, storeIDs []int64) ([]domain.StoreResult, error) {
	args := m.Called(ctx, userID, cartID, storeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoreResult), args.Error(1)
}

func (m *mockComparisonBackend) Alternatives(ctx context.Context, storeID int64, itemID string) ([]domain.Alternative, error) {
	args := m.Called(ctx, storeID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alternative), args.Error(1)
}

type mockAuthBackend struct {
	mock.Mock
}

func (m *mockAuthBackend) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *mockAuthBackend) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// --- Test helpers ---

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer returns a producer with no broker; events are dropped.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	return event.NewProducer(pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(nil), logger), logger)
}

func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type cartFixture struct {
	backend   *mockCartBackend
	activeIDs *redisrepo.ActiveCartCache
	snapshots *redisrepo.CartSnapshotRepository
	svc       *CartService
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	client := setupTestRedis(t)
	f := &cartFixture{
		backend:   new(mockCartBackend),
		activeIDs: redisrepo.NewActiveCartCache(client, time.Hour),
		snapshots: redisrepo.NewCartSnapshotRepository(client, time.Hour),
	}
	f.svc = NewCartService(f.backend, f.activeIDs, f.snapshots, newTestProducer(), newTestLogger())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func line(itemID string, qty int) domain.CartLine {
	return domain.CartLine{ItemID: itemID, ItemName: "item " + itemID, Quantity: qty}
}
