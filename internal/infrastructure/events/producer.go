package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/segmentio/kafka-go"
)

// StatusChangedEvent is the envelope published for every applied order
// status transition.
type StatusChangedEvent struct {
	EventID         string `json:"event_id"`
	Type            string `json:"type"`
	CartID          int64  `json:"cart_id"`
	LocalOrderID    *int64 `json:"order_id,omitempty"`
	ExternalOrderID string `json:"external_order_id"`
	PaymentMethod   string `json:"payment_method"`
	FromStatus      string `json:"from_status"`
	ToStatus        string `json:"to_status"`
	Source          string `json:"source"`
	OccurredAt      string `json:"occurred_at"`
}

const eventTypeStatusChanged = "order.status.changed"

// Producer publishes status events to Kafka without blocking callers. A
// buffered inbox absorbs bursts; when it is full the event is dropped and
// logged rather than stalling reconciliation.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	source  string
	logger  *slog.Logger
}

func NewProducer(brokers []string, topic string, buf int, source string, logger *slog.Logger) *Producer {
	if buf <= 0 {
		buf = 256
	}
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		source:  source,
		logger:  logger,
	}
}

// Start runs the writer loop until ctx is cancelled, then flushes whatever
// is still queued before closing the writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				close(p.inbox)
				for m := range p.inbox {
					p.write(m)
				}
				if err := p.w.Close(); err != nil {
					p.logger.Warn("failed to close kafka writer", "error", err)
				}
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) PublishStatusChanged(entry *domain.LedgerEntry, from, to domain.LocalStatus) {
	event := StatusChangedEvent{
		EventID:         uuid.New().String(),
		Type:            eventTypeStatusChanged,
		CartID:          entry.CartID,
		LocalOrderID:    entry.LocalOrderID,
		ExternalOrderID: entry.ExternalOrderID,
		PaymentMethod:   entry.PaymentMethod,
		FromStatus:      string(from),
		ToStatus:        string(to),
		Source:          p.source,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal status event", "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(entry.ExternalOrderID),
		Value: value,
		Time:  time.Now(),
	}

	select {
	case p.inbox <- msg:
	default:
		p.logger.Warn("event inbox full, dropping status event",
			"cart_id", entry.CartID,
			"to_status", to,
		)
	}
}

// WaitClosed blocks until the writer loop has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.Warn("failed to publish status event", "error", err)
	}
}
