package domain

import "context"

// BookRepository — порт для операций персистентности книг.
// FindByID возвращает ErrNotFound, если книги нет.
// Save вставляет запись при ID == 0 и обновляет её иначе; присвоенный ID записывается в book.
type BookRepository interface {
	FindByID(ctx context.Context, id int64) (Book, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Save(ctx context.Context, book *Book) error
	DeleteByID(ctx context.Context, id int64) error
	FindAll(ctx context.Context, spec PageSpec) (Page[Book], error)
}

// LoanRepository — порт для операций персистентности выдач.
// Выдачи читаются вместе с книгой, Save использует loan.Book.ID как ссылку.
type LoanRepository interface {
	FindByID(ctx context.Context, id int64) (Loan, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error)
	ExistsByBookID(ctx context.Context, bookID int64) (bool, error)
	Save(ctx context.Context, loan *Loan) error
	DeleteByID(ctx context.Context, id int64) error
	FindAll(ctx context.Context, spec PageSpec) (Page[Loan], error)
}

// Transactor выполняет fn в одной атомарной транзакции хранилища.
// Репозитории, вызванные с ctx из fn, работают внутри этой транзакции.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventPublisher — порт публикации доменных событий.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// MessageSubscriber — порт подписчика на входящие сообщения.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}
