package usecase

import (
	"context"
	"log/slog"

	"github.com/example/library-service/internal/domain"
)

const (
	logAttrBookID    = "book_id"
	logAttrLoanID    = "loan_id"
	logAttrReturned  = "returned"
	logAttrEventType = "event_type"
	logAttrError     = "error"
)

type deletedPayload struct {
	ID int64 `json:"id"`
}

// publish вызывается после фиксации транзакции; ошибка брокера только логируется,
// изменение в хранилище уже сохранено.
func publish(ctx context.Context, p domain.EventPublisher, log *slog.Logger, e domain.Event) {
	if err := p.Publish(ctx, e); err != nil {
		log.WarnContext(ctx, "event publish failed", logAttrEventType, e.Type, logAttrError, err.Error())
	}
}
