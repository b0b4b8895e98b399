// Package kafka publica los eventos de stock del libro en un tópico Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/medstock-ledger/internal/application/inventory"
)

var _ inventory.EventPublisher = (*Publisher)(nil)

// DefaultPublishTimeout tope de una publicación cuando no se configura otro.
const DefaultPublishTimeout = 2 * time.Second

// MessageWriter lo implementa *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher serializa StockEvent a JSON. La llave es el id del ítem, así los eventos de un
// mismo ítem caen en la misma partición y conservan su orden. Publish corre después del commit
// en el camino de la petición, por eso cada envío tiene un tope de tiempo.
type Publisher struct {
	w       MessageWriter
	timeout time.Duration
}

// NewWriter construye el writer de segmentio para los brokers y el tópico configurados.
func NewWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: timeout,
	}
}

// NewPublisher construye el publicador sobre un writer. timeout <= 0 usa DefaultPublishTimeout.
func NewPublisher(w MessageWriter, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Publisher{w: w, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, ev inventory.StockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ItemID),
		Value: payload,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close vacía el lote pendiente y cierra el writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
