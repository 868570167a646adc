package domain

import (
	"context"
	"time"
)

// Типы доменных событий.
const (
	EventBookCreated  = "book.created"
	EventBookUpdated  = "book.updated"
	EventBookDeleted  = "book.deleted"
	EventLoanCreated  = "loan.created"
	EventLoanUpdated  = "loan.updated"
	EventLoanReturned = "loan.returned"
	EventLoanDeleted  = "loan.deleted"
)

// Event — событие, публикуемое после успешной фиксации транзакции.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// NopPublisher отбрасывает события; используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
