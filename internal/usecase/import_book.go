package usecase

import (
	"context"
	"log/slog"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/library-service/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ImportBook — создать книгу из входящего сообщения брокера.
// Битые и отклонённые доменом сообщения подтверждаются (nil), чтобы не переотправляться;
// ошибки хранилища возвращаются, и брокер доставит сообщение повторно.
type ImportBook struct {
	Books *BookService
	Log   *slog.Logger
}

func (uc ImportBook) Execute(ctx context.Context, raw []byte) error {
	var in domain.BookInput
	if err := json.Unmarshal(raw, &in); err != nil {
		uc.Log.WarnContext(ctx, "skip malformed book message", logAttrError, err.Error())
		return nil
	}
	book, err := uc.Books.Create(ctx, in)
	switch {
	case err == nil:
		uc.Log.InfoContext(ctx, "book imported", logAttrBookID, book.ID)
		return nil
	case domain.IsValidation(err), domain.IsConflict(err):
		uc.Log.WarnContext(ctx, "book message rejected", "isbn", in.ISBN, logAttrError, err.Error())
		return nil
	default:
		return err
	}
}
