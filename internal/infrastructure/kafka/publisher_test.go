package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
	ledgerkafka "github.com/jhoicas/medstock-ledger/internal/infrastructure/kafka"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	hang   bool
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := ledgerkafka.NewPublisher(w, 0)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), inventory.StockEvent{
		Type:          inventory.EventStockAlert,
		ItemID:        "item-1",
		SKU:           "PAR500",
		Alert:         inventory.AlertLowStock,
		PreviousStock: 25,
		NewStock:      15,
		MinimumStock:  20,
		OccurredAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "item-1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, inventory.EventStockAlert, string(msg.Headers[0].Value))

	var got inventory.StockEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "PAR500", got.SKU)
	assert.Equal(t, int64(15), got.NewStock)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_ErrorDelBroker(t *testing.T) {
	boom := errors.New("broker caído")
	p := ledgerkafka.NewPublisher(&fakeWriter{err: boom}, 0)
	err := p.Publish(context.Background(), inventory.StockEvent{Type: inventory.EventMovementRecorded, ItemID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_BrokerSinRespuestaRespetaElTope(t *testing.T) {
	p := ledgerkafka.NewPublisher(&fakeWriter{hang: true}, 50*time.Millisecond)
	start := time.Now()
	err := p.Publish(context.Background(), inventory.StockEvent{Type: inventory.EventMovementRecorded, ItemID: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewWriter_ReintentosAcotados(t *testing.T) {
	w := ledgerkafka.NewWriter([]string{"localhost:9092"}, "stock-events", 0)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.Equal(t, ledgerkafka.DefaultPublishTimeout, w.WriteTimeout)
	assert.Equal(t, "stock-events", w.Topic)
}
