package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	pkgkafka "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/kafka"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/logger"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func newCaptureProducer() (*Producer, *captureWriter) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := &captureWriter{}
	return NewProducer(pkgkafka.NewProducerWithWriter(w, []string{"broker:9092"}, log), log), w
}

func TestPublishCartUpdated(t *testing.T) {
	p, w := newCaptureProducer()
	ctx := logger.WithSessionID(logger.WithCorrelationID(context.Background(), "corr-1"), "tab-1")

	snap := &domain.CartSnapshot{
		CartID: 9,
		Lines: []domain.CartLine{
			{ItemID: "a", Quantity: 2, TotalMinPrice: decimal.NewNullDecimal(decimal.RequireFromString("10.50"))},
			{ItemID: "b", Quantity: 1},
		},
	}
	require.NoError(t, p.PublishCartUpdated(ctx, 3, snap))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicCartUpdated, w.msgs[0].Topic)
	assert.Equal(t, "3", string(w.msgs[0].Key))

	var data CartUpdatedData
	ev, err := pkgkafka.DecodeEvent(w.msgs[0].Value, &data)
	require.NoError(t, err)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.Equal(t, "tab-1", ev.Metadata["session_id"])
	assert.Equal(t, SourcePriceComparer, ev.Source)
	assert.Equal(t, int64(9), data.CartID)
	assert.Equal(t, 3, data.ItemCount)
	assert.Len(t, data.Lines, 2)
	assert.True(t, data.TotalMin.Equal(decimal.RequireFromString("10.5")))
}

func TestPublishCartLifecycle(t *testing.T) {
	p, w := newCaptureProducer()
	ctx := context.Background()

	require.NoError(t, p.PublishCartCleared(ctx, 1, 10))
	require.NoError(t, p.PublishCartArchived(ctx, 1, domain.Cart{ID: 10, Name: "Weekly"}))
	require.NoError(t, p.PublishCartRestored(ctx, 1, 8))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, TopicCartCleared, w.msgs[0].Topic)
	assert.Equal(t, TopicCartArchived, w.msgs[1].Topic)
	assert.Equal(t, TopicCartRestored, w.msgs[2].Topic)

	var archived CartLifecycleData
	_, err := pkgkafka.DecodeEvent(w.msgs[1].Value, &archived)
	require.NoError(t, err)
	assert.Equal(t, CartLifecycleData{UserID: 1, CartID: 10, Name: "Weekly"}, archived)
}

func TestPublishComparisonEvents(t *testing.T) {
	p, w := newCaptureProducer()
	ctx := context.Background()

	cmp := domain.NewComparisonResult(4, 11, []int64{1}, []domain.StoreResult{{
		Store:     domain.Store{ID: 1},
		CartPrice: decimal.RequireFromString("12.00"),
		Items: []domain.PricedLine{
			{ItemID: "x", Price: decimal.NewNullDecimal(decimal.RequireFromString("12"))},
			{ItemID: "y"},
		},
	}}, time.Now())

	require.NoError(t, p.PublishComparisonCompleted(ctx, cmp))

	alt := domain.AlternativeChoice{ItemID: "z", ItemName: "Z", Price: decimal.NewNullDecimal(decimal.RequireFromString("3"))}
	result, err := cmp.Substitute(1, "y", alt, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.PublishComparisonPatched(ctx, cmp, result, result.Substitutions[0]))

	require.Len(t, w.msgs, 2)

	var completed ComparisonCompletedData
	_, err = pkgkafka.DecodeEvent(w.msgs[0].Value, &completed)
	require.NoError(t, err)
	assert.Equal(t, cmp.ID.String(), completed.ComparisonID)
	require.Len(t, completed.Stores, 1)
	assert.Equal(t, 1, completed.Stores[0].Missing)

	var patched ComparisonPatchedData
	_, err = pkgkafka.DecodeEvent(w.msgs[1].Value, &patched)
	require.NoError(t, err)
	assert.Equal(t, "y", patched.OriginalItemID)
	assert.Equal(t, "z", patched.ItemID)
	assert.Equal(t, domain.SourceLocallyPatched, patched.Source)
	assert.True(t, patched.CartPrice.Equal(decimal.NewFromInt(15)))
}
