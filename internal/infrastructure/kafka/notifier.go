package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lodygens/cryptobot/internal/application"
	"github.com/lodygens/cryptobot/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes each message to a topic for a downstream delivery service.
type Notifier struct {
	writer      messageWriter
	destination string
	now         func() time.Time
}

var _ application.Notifier = (*Notifier)(nil)

// Envelope is the payload consumers receive.
type Envelope struct {
	Destination string    `json:"destination"`
	Text        string    `json:"text"`
	SentAt      time.Time `json:"sent_at"`
}

func New(brokers []string, topic string) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newWithWriter(w, topic, time.Now)
}

func newWithWriter(w messageWriter, destination string, now func() time.Time) *Notifier {
	return &Notifier{writer: w, destination: destination, now: now}
}

func (n *Notifier) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(Envelope{Destination: n.destination, Text: text, SentAt: n.now().UTC()})
	if err != nil {
		return fmt.Errorf("%w: kafka: encode: %w", domain.ErrNotify, err)
	}
	// keying by destination keeps one partition per destination, preserving order
	msg := kafkago.Message{Key: []byte(n.destination), Value: payload}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: kafka: write: %w", domain.ErrNotify, err)
	}
	return nil
}

func (n *Notifier) Close() error { return n.writer.Close() }
