package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/example/library-service/internal/domain"
)

type loanRow struct {
	id            int64
	customer      string
	customerEmail string
	bookID        int64
	loanDate      domain.Date
	returned      bool
}

// Store — хранилище книг и выдач в памяти с теми же ограничениями, что и схема PostgreSQL:
// уникальный ISBN, одна активная выдача на книгу, запрет удаления книги со ссылками.
type Store struct {
	mu       sync.RWMutex
	books    map[int64]domain.Book
	loans    map[int64]loanRow
	nextBook int64
	nextLoan int64

	txMu sync.Mutex
}

func New() *Store {
	return &Store{
		books:    make(map[int64]domain.Book),
		loans:    make(map[int64]loanRow),
		nextBook: 1,
		nextLoan: 1,
	}
}

func (s *Store) Books() *BookRepo { return &BookRepo{s: s} }
func (s *Store) Loans() *LoanRepo { return &LoanRepo{s: s} }

func (s *Store) Ping(context.Context) error { return nil }

type snapshot struct {
	books    map[int64]domain.Book
	loans    map[int64]loanRow
	nextBook int64
	nextLoan int64
}

// WithinTx выполняет транзакции последовательно и откатывает изменения fn при ошибке.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := snapshot{
		books:    maps.Clone(s.books),
		loans:    maps.Clone(s.loans),
		nextBook: s.nextBook,
		nextLoan: s.nextLoan,
	}
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.books, s.loans = snap.books, snap.loans
		s.nextBook, s.nextLoan = snap.nextBook, snap.nextLoan
		s.mu.Unlock()
		return err
	}
	return nil
}

var (
	_ domain.Transactor = (*Store)(nil)
	_ domain.Pinger     = (*Store)(nil)
)
