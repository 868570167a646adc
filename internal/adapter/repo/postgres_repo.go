package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // регистрирует диалект
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/library-service/internal/domain"
)

const (
	dialectPostgres = "postgres"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var dialect = goqu.Dialect(dialectPostgres)

// PoolConfig — параметры пула соединений.
type PoolConfig struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// NewPool создаёт pgxpool.Pool и проверяет соединение.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		dbConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		dbConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		dbConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		dbConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		dbConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ConnectTimeout > 0 {
		dbConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// querier — общее подмножество *pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn возвращает транзакцию из ctx, если она открыта, иначе пул.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor открывает транзакцию pgx и передаёт её репозиториям через контекст.
type Transactor struct {
	Pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{Pool: pool}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := t.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err, nil)
	}
	return nil
}

func (t *Transactor) Ping(ctx context.Context) error {
	return t.Pool.Ping(ctx)
}

// translate переводит нарушения ограничений схемы в доменные ошибки.
// fk задаёт ошибку для нарушения внешнего ключа в зависимости от операции.
func translate(err error, fk error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintBooksISBN:
			return domain.ErrISBNTaken
		case constraintActiveLoan:
			return domain.ErrBookOnLoan
		}
	case pgForeignKeyViolation:
		if fk != nil {
			return fk
		}
		return domain.ErrConflict
	}
	return err
}

// exists выполняет SELECT 1 ... LIMIT 1 и сообщает, нашлась ли строка.
func exists(ctx context.Context, q querier, ds *goqu.SelectDataset) (bool, error) {
	query, args, err := ds.Select(goqu.L("1")).Limit(1).Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	var one int
	err = q.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func count(ctx context.Context, q querier, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// orderBy строит ORDER BY из устойчивой сортировки; columns сопоставляет поля с колонками.
func orderBy(spec domain.PageSpec, columns map[string]string) []exp.OrderedExpression {
	var exprs []exp.OrderedExpression
	for _, o := range spec.StableSort() {
		col, ok := columns[o.Field]
		if !ok {
			continue
		}
		if o.Desc {
			exprs = append(exprs, goqu.I(col).Desc())
		} else {
			exprs = append(exprs, goqu.I(col).Asc())
		}
	}
	return exprs
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableDate(d domain.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

var (
	_ domain.Transactor = (*Transactor)(nil)
	_ domain.Pinger     = (*Transactor)(nil)
)
