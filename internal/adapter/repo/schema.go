package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	tableBooks = "books"
	tableLoans = "loans"

	constraintBooksISBN  = "books_isbn_key"
	constraintActiveLoan = "loans_active_book_key"
)

// EnsureSchema — создать необходимые таблицы и индексы, если отсутствуют.
// Частичные уникальные индексы закрывают гонку check-then-act для ISBN и активной выдачи.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS books (
  id bigserial PRIMARY KEY,
  title text NOT NULL,
  author text NOT NULL DEFAULT '',
  isbn text
);
CREATE UNIQUE INDEX IF NOT EXISTS books_isbn_key ON books (isbn) WHERE isbn IS NOT NULL;

CREATE TABLE IF NOT EXISTS loans (
  id bigserial PRIMARY KEY,
  customer text NOT NULL DEFAULT '',
  customer_email text NOT NULL DEFAULT '',
  book_id bigint NOT NULL REFERENCES books (id),
  loan_date date,
  returned boolean NOT NULL DEFAULT false
);
CREATE UNIQUE INDEX IF NOT EXISTS loans_active_book_key ON loans (book_id) WHERE NOT returned;
CREATE INDEX IF NOT EXISTS loans_book_id_idx ON loans (book_id);
`)
	return err
}
