package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	pkgkafka "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/kafka"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/logger"
)

// Kafka topics for cart lifecycle and comparison events.
const (
	TopicCartUpdated         = "pricecompare.cart.updated"
	TopicCartCleared         = "pricecompare.cart.cleared"
	TopicCartArchived        = "pricecompare.cart.archived"
	TopicCartRestored        = "pricecompare.cart.restored"
	TopicComparisonCompleted = "pricecompare.comparison.completed"
	TopicComparisonPatched   = "pricecompare.comparison.patched"
)

const (
	AggregateTypeCart       = "cart"
	AggregateTypeComparison = "comparison"
)

// SourcePriceComparer identifies events published by this service.
const SourcePriceComparer = "price-comparer"

// CartLineData is one line within a cart.updated payload.
type CartLineData struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	UserID    int64           `json:"user_id"`
	CartID    int64           `json:"cart_id"`
	Lines     []CartLineData  `json:"lines"`
	ItemCount int             `json:"item_count"`
	TotalMin  decimal.Decimal `json:"total_min"`
	TotalMax  decimal.Decimal `json:"total_max"`
}

// CartLifecycleData is the payload of cleared, archived and restored events.
type CartLifecycleData struct {
	UserID int64  `json:"user_id"`
	CartID int64  `json:"cart_id"`
	Name   string `json:"name,omitempty"`
}

// StoreTotalData summarizes one store in a comparison.completed payload.
type StoreTotalData struct {
	StoreID   int64           `json:"store_id"`
	CartPrice decimal.Decimal `json:"cart_price"`
	Missing   int             `json:"missing"`
}

// ComparisonCompletedData is the payload of a comparison.completed event.
type ComparisonCompletedData struct {
	ComparisonID string           `json:"comparison_id"`
	UserID       int64            `json:"user_id"`
	CartID       int64            `json:"cart_id"`
	Stores       []StoreTotalData `json:"stores"`
}

// ComparisonPatchedData is the payload of a comparison.patched event.
type ComparisonPatchedData struct {
	ComparisonID   string              `json:"comparison_id"`
	StoreID        int64               `json:"store_id"`
	OriginalItemID string              `json:"original_item_id"`
	ItemID         string              `json:"item_id"`
	CartPrice      decimal.Decimal     `json:"cart_price"`
	Source         domain.ResultSource `json:"source"`
}

// Producer publishes price comparer domain events.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	ev, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourcePriceComparer, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	ev.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithMetadata("session_id", logger.SessionIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// PublishCartUpdated publishes the refreshed snapshot of a user's active cart.
func (p *Producer) PublishCartUpdated(ctx context.Context, userID int64, snap *domain.CartSnapshot) error {
	lines := make([]CartLineData, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = CartLineData{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	total := snap.Total()

	data := CartUpdatedData{
		UserID:    userID,
		CartID:    snap.CartID,
		Lines:     lines,
		ItemCount: snap.ItemCount(),
		TotalMin:  total.Min,
		TotalMax:  total.Max,
	}
	return p.publish(ctx, TopicCartUpdated, userKey(userID), AggregateTypeCart, data)
}

// PublishCartCleared publishes the deletion of a user's active cart.
func (p *Producer) PublishCartCleared(ctx context.Context, userID, cartID int64) error {
	return p.publish(ctx, TopicCartCleared, userKey(userID), AggregateTypeCart,
		CartLifecycleData{UserID: userID, CartID: cartID})
}

// PublishCartArchived publishes the archiving of a cart under its name.
func (p *Producer) PublishCartArchived(ctx context.Context, userID int64, cart domain.Cart) error {
	return p.publish(ctx, TopicCartArchived, userKey(userID), AggregateTypeCart,
		CartLifecycleData{UserID: userID, CartID: cart.ID, Name: cart.Name})
}

// PublishCartRestored publishes the reactivation of an archived cart.
func (p *Producer) PublishCartRestored(ctx context.Context, userID, cartID int64) error {
	return p.publish(ctx, TopicCartRestored, userKey(userID), AggregateTypeCart,
		CartLifecycleData{UserID: userID, CartID: cartID})
}

// PublishComparisonCompleted publishes the per-store totals of a new
// comparison.
func (p *Producer) PublishComparisonCompleted(ctx context.Context, cmp *domain.ComparisonResult) error {
	stores := make([]StoreTotalData, len(cmp.Results))
	for i := range cmp.Results {
		r := &cmp.Results[i]
		stores[i] = StoreTotalData{StoreID: r.Store.ID, CartPrice: r.CartPrice, Missing: r.MissingCount()}
	}

	data := ComparisonCompletedData{
		ComparisonID: cmp.ID.String(),
		UserID:       cmp.UserID,
		CartID:       cmp.CartID,
		Stores:       stores,
	}
	return p.publish(ctx, TopicComparisonCompleted, userKey(cmp.UserID), AggregateTypeComparison, data)
}

// PublishComparisonPatched publishes one local substitution. The patched total
// is not confirmed by the backend.
func (p *Producer) PublishComparisonPatched(ctx context.Context, cmp *domain.ComparisonResult, result *domain.StoreResult, sub domain.Substitution) error {
	data := ComparisonPatchedData{
		ComparisonID:   cmp.ID.String(),
		StoreID:        result.Store.ID,
		OriginalItemID: sub.OriginalItemID,
		ItemID:         sub.ItemID,
		CartPrice:      result.CartPrice,
		Source:         result.Source,
	}
	return p.publish(ctx, TopicComparisonPatched, userKey(cmp.UserID), AggregateTypeComparison, data)
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
