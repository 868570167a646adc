package repo

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/library-service/internal/domain"
)

var bookColumns = map[string]string{
	domain.BookSortID:     "id",
	domain.BookSortTitle:  "title",
	domain.BookSortAuthor: "author",
	domain.BookSortISBN:   "isbn",
}

type PostgresBookRepo struct {
	Pool *pgxpool.Pool
}

func NewPostgresBookRepo(pool *pgxpool.Pool) *PostgresBookRepo {
	return &PostgresBookRepo{Pool: pool}
}

func (r *PostgresBookRepo) FindByID(ctx context.Context, id int64) (domain.Book, error) {
	query, args, err := dialect.From(tableBooks).
		Select("id", "title", "author", "isbn").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return domain.Book{}, err
	}
	b, err := scanBook(conn(ctx, r.Pool).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Book{}, domain.ErrNotFound
	}
	return b, err
}

func (r *PostgresBookRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, conn(ctx, r.Pool), dialect.From(tableBooks).Where(goqu.C("id").Eq(id)))
}

func (r *PostgresBookRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	return exists(ctx, conn(ctx, r.Pool), dialect.From(tableBooks).Where(goqu.C("isbn").Eq(isbn)))
}

func (r *PostgresBookRepo) Save(ctx context.Context, b *domain.Book) error {
	record := goqu.Record{
		"title":  b.Title,
		"author": b.Author,
		"isbn":   nullable(b.ISBN),
	}
	q := conn(ctx, r.Pool)

	if b.ID == 0 {
		query, args, err := dialect.Insert(tableBooks).Rows(record).Returning("id").Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		return translate(q.QueryRow(ctx, query, args...).Scan(&b.ID), nil)
	}

	query, args, err := dialect.Update(tableBooks).Set(record).Where(goqu.C("id").Eq(b.ID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return translate(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresBookRepo) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := dialect.Delete(tableBooks).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	tag, err := conn(ctx, r.Pool).Exec(ctx, query, args...)
	if err != nil {
		return translate(err, domain.ErrBookHasLoans)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresBookRepo) FindAll(ctx context.Context, spec domain.PageSpec) (domain.Page[domain.Book], error) {
	q := conn(ctx, r.Pool)
	total, err := count(ctx, q, dialect.From(tableBooks))
	if err != nil {
		return domain.Page[domain.Book]{}, err
	}

	query, args, err := dialect.From(tableBooks).
		Select("id", "title", "author", "isbn").
		Order(orderBy(spec, bookColumns)...).
		Limit(uint(spec.Size)).
		Offset(uint(spec.Offset())).
		Prepared(true).ToSQL()
	if err != nil {
		return domain.Page[domain.Book]{}, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Book]{}, err
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return domain.Page[domain.Book]{}, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Book]{}, err
	}
	return domain.NewPage(books, spec, total), nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	var isbn pgtype.Text
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &isbn); err != nil {
		return domain.Book{}, err
	}
	b.ISBN = isbn.String
	return b, nil
}

var _ domain.BookRepository = (*PostgresBookRepo)(nil)
