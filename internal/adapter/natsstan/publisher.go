package natsstan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	stan "github.com/nats-io/stan.go"

	"github.com/example/library-service/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope — формат доменного события на проводе.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher публикует доменные события в subject NATS Streaming.
type Publisher struct {
	Conn    stan.Conn
	Subject string
}

func NewPublisher(conn stan.Conn, subject string) *Publisher {
	return &Publisher{Conn: conn, Subject: subject}
}

func (p *Publisher) Publish(_ context.Context, e domain.Event) error {
	b, err := Encode(e)
	if err != nil {
		return err
	}
	if err := p.Conn.Publish(p.Subject, b); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Encode оборачивает событие в Envelope с идентификатором UUIDv7.
func Encode(e domain.Event) ([]byte, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(Envelope{
		ID:         id.String(),
		Type:       e.Type,
		OccurredAt: e.OccurredAt,
		Payload:    e.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Type, err)
	}
	return b, nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
