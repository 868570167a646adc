package natsstan

import (
	"context"
	"log/slog"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/example/library-service/internal/domain"
)

type Subscriber struct {
	Conn       stan.Conn
	Subject    string
	QueueGroup string
	Durable    string
	AckWait    time.Duration
	Timeout    time.Duration
	Log        *slog.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	ackWait := s.AckWait
	if ackWait == 0 {
		ackWait = 10 * time.Second
	}
	sub, err := s.Conn.QueueSubscribe(s.Subject, s.QueueGroup, func(m *stan.Msg) {
		if s.handle(ctx, handler, m.Data) {
			if err := m.Ack(); err != nil {
				s.Log.Warn("ack failed", "subject", s.Subject, "error", err.Error())
			}
		}
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(ackWait), stan.DeliverAllAvailable())
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		// Close, а не Unsubscribe: durable-подписка должна пережить перезапуск.
		_ = sub.Close()
	}()
	return nil
}

// handle вызывает обработчик и сообщает, нужно ли подтверждать сообщение.
// При ошибке не подтверждаем, даём сообщению переотправиться.
func (s *Subscriber) handle(ctx context.Context, handler func(ctx context.Context, raw []byte) error, data []byte) bool {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	hCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := handler(hCtx, data); err != nil {
		s.Log.Error("handler error", "subject", s.Subject, "error", err.Error())
		return false
	}
	return true
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
