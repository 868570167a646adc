package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/example/library-service/internal/domain"
)

// BookService владеет инвариантами книг: непустое название и уникальный ISBN.
type BookService struct {
	Books  domain.BookRepository
	Loans  domain.LoanRepository
	Tx     domain.Transactor
	Events domain.EventPublisher
	Log    *slog.Logger
}

func NewBookService(books domain.BookRepository, loans domain.LoanRepository, tx domain.Transactor, events domain.EventPublisher, log *slog.Logger) *BookService {
	if events == nil {
		events = domain.NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &BookService{Books: books, Loans: loans, Tx: tx, Events: events, Log: log}
}

func (s *BookService) Create(ctx context.Context, in domain.BookInput) (domain.Book, error) {
	in = in.Normalize()
	var book domain.Book
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.validateCreate(ctx, in); err != nil {
			return err
		}
		book.Apply(in)
		return s.Books.Save(ctx, &book)
	})
	if err != nil {
		return domain.Book{}, err
	}
	s.Log.InfoContext(ctx, "book created", logAttrBookID, book.ID)
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventBookCreated, book))
	return book, nil
}

func (s *BookService) validateCreate(ctx context.Context, in domain.BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.ErrTitleRequired
	}
	if in.ISBN == "" {
		return nil
	}
	taken, err := s.Books.ExistsByISBN(ctx, in.ISBN)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrISBNTaken
	}
	return nil
}

// GetByID возвращает ErrBookNotFound, если книги нет.
func (s *BookService) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	book, err := s.Books.FindByID(ctx, id)
	if err != nil {
		return domain.Book{}, bookErr(err)
	}
	return book, nil
}

// Update полностью заменяет название, автора и ISBN. Повторной проверки ISBN нет:
// дубликат отклоняет ограничение хранилища.
func (s *BookService) Update(ctx context.Context, id int64, in domain.BookInput) (domain.Book, error) {
	in = in.Normalize()
	var book domain.Book
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if book, err = s.GetByID(ctx, id); err != nil {
			return err
		}
		book.Apply(in)
		return s.Books.Save(ctx, &book)
	})
	if err != nil {
		return domain.Book{}, err
	}
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventBookUpdated, book))
	return book, nil
}

// Delete запрещает удаление книги, на которую ссылается хотя бы одна выдача.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.Books.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrBookNotFound
		}
		referenced, err := s.Loans.ExistsByBookID(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return domain.ErrBookHasLoans
		}
		return bookErr(s.Books.DeleteByID(ctx, id))
	})
	if err != nil {
		return err
	}
	s.Log.InfoContext(ctx, "book deleted", logAttrBookID, id)
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventBookDeleted, deletedPayload{ID: id}))
	return nil
}

func (s *BookService) FindAll(ctx context.Context, spec domain.PageSpec) (domain.Page[domain.Book], error) {
	if err := spec.Validate(domain.BookSortFields); err != nil {
		return domain.Page[domain.Book]{}, err
	}
	return s.Books.FindAll(ctx, spec)
}

func bookErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrBookNotFound
	}
	return err
}
