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

var loanColumns = map[string]string{
	domain.LoanSortID:            "l.id",
	domain.LoanSortCustomer:      "l.customer",
	domain.LoanSortCustomerEmail: "l.customer_email",
	domain.LoanSortLoanDate:      "l.loan_date",
	domain.LoanSortReturned:      "l.returned",
	domain.LoanSortBookID:        "l.book_id",
}

type PostgresLoanRepo struct {
	Pool *pgxpool.Pool
}

func NewPostgresLoanRepo(pool *pgxpool.Pool) *PostgresLoanRepo {
	return &PostgresLoanRepo{Pool: pool}
}

// loansWithBooks — выдачи, соединённые со своими книгами.
func loansWithBooks() *goqu.SelectDataset {
	return dialect.From(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("l.book_id").Eq(goqu.I("b.id")))).
		Select("l.id", "l.customer", "l.customer_email", "l.loan_date", "l.returned",
			"b.id", "b.title", "b.author", "b.isbn")
}

func (r *PostgresLoanRepo) FindByID(ctx context.Context, id int64) (domain.Loan, error) {
	query, args, err := loansWithBooks().Where(goqu.I("l.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return domain.Loan{}, err
	}
	l, err := scanLoan(conn(ctx, r.Pool).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Loan{}, domain.ErrNotFound
	}
	return l, err
}

func (r *PostgresLoanRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, conn(ctx, r.Pool), dialect.From(tableLoans).Where(goqu.C("id").Eq(id)))
}

func (r *PostgresLoanRepo) ExistsActiveByBookID(ctx context.Context, bookID int64) (bool, error) {
	return exists(ctx, conn(ctx, r.Pool), dialect.From(tableLoans).Where(
		goqu.C("book_id").Eq(bookID),
		goqu.C("returned").IsFalse(),
	))
}

func (r *PostgresLoanRepo) ExistsByBookID(ctx context.Context, bookID int64) (bool, error) {
	return exists(ctx, conn(ctx, r.Pool), dialect.From(tableLoans).Where(goqu.C("book_id").Eq(bookID)))
}

func (r *PostgresLoanRepo) Save(ctx context.Context, l *domain.Loan) error {
	record := goqu.Record{
		"customer":       l.Customer,
		"customer_email": l.CustomerEmail,
		"book_id":        l.Book.ID,
		"loan_date":      nullableDate(l.LoanDate),
		"returned":       l.Returned,
	}
	q := conn(ctx, r.Pool)

	if l.ID == 0 {
		query, args, err := dialect.Insert(tableLoans).Rows(record).Returning("id").Prepared(true).ToSQL()
		if err != nil {
			return err
		}
		return translate(q.QueryRow(ctx, query, args...).Scan(&l.ID), domain.ErrBookNotFound)
	}

	query, args, err := dialect.Update(tableLoans).Set(record).Where(goqu.C("id").Eq(l.ID)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return translate(err, domain.ErrBookNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresLoanRepo) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := dialect.Delete(tableLoans).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	tag, err := conn(ctx, r.Pool).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresLoanRepo) FindAll(ctx context.Context, spec domain.PageSpec) (domain.Page[domain.Loan], error) {
	q := conn(ctx, r.Pool)
	total, err := count(ctx, q, dialect.From(tableLoans))
	if err != nil {
		return domain.Page[domain.Loan]{}, err
	}

	query, args, err := loansWithBooks().
		Order(orderBy(spec, loanColumns)...).
		Limit(uint(spec.Size)).
		Offset(uint(spec.Offset())).
		Prepared(true).ToSQL()
	if err != nil {
		return domain.Page[domain.Loan]{}, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Loan]{}, err
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return domain.Page[domain.Loan]{}, err
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Loan]{}, err
	}
	return domain.NewPage(loans, spec, total), nil
}

func scanLoan(row pgx.Row) (domain.Loan, error) {
	var l domain.Loan
	var loanDate pgtype.Date
	var isbn pgtype.Text
	err := row.Scan(&l.ID, &l.Customer, &l.CustomerEmail, &loanDate, &l.Returned,
		&l.Book.ID, &l.Book.Title, &l.Book.Author, &isbn)
	if err != nil {
		return domain.Loan{}, err
	}
	if loanDate.Valid {
		l.LoanDate = domain.DateOf(loanDate.Time)
	}
	l.Book.ISBN = isbn.String
	return l, nil
}

var _ domain.LoanRepository = (*PostgresLoanRepo)(nil)
