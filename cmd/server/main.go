package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	stan "github.com/nats-io/stan.go"

	"github.com/example/library-service/internal/adapter/httpapi"
	"github.com/example/library-service/internal/adapter/memstore"
	"github.com/example/library-service/internal/adapter/natsstan"
	"github.com/example/library-service/internal/adapter/repo"
	"github.com/example/library-service/internal/config"
	"github.com/example/library-service/internal/domain"
	"github.com/example/library-service/internal/logging"
	"github.com/example/library-service/internal/usecase"
)

// storage — набор портов, собранный для выбранного хранилища.
type storage struct {
	books  domain.BookRepository
	loans  domain.LoanRepository
	tx     domain.Transactor
	health domain.Pinger
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err.Error())
		os.Exit(1)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var events domain.EventPublisher = domain.NopPublisher{}
	var sc stan.Conn
	if cfg.NATS.Enabled {
		sc, err = natsstan.Connect(cfg.NATS.ClusterID, cfg.NATS.ClientID, cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer sc.Close()
		events = natsstan.NewPublisher(sc, cfg.NATS.EventsSubject)
	}

	books := usecase.NewBookService(st.books, st.loans, st.tx, events, log)
	loans := usecase.NewLoanService(st.loans, books, st.tx, events, log)

	if sc != nil {
		sub := &natsstan.Subscriber{
			Conn:       sc,
			Subject:    cfg.NATS.ImportSubject,
			QueueGroup: cfg.NATS.QueueGroup,
			Durable:    cfg.NATS.Durable,
			Log:        log,
		}
		importer := usecase.ImportBook{Books: books, Log: log}
		if err := sub.Subscribe(ctx, importer.Execute); err != nil {
			return err
		}
		log.Info("subscribed", "subject", cfg.NATS.ImportSubject)
	}

	api := httpapi.NewServer(books, loans, st.health, log)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: api}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", "addr", srv.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.Storage == config.StorageMemory {
		mem := memstore.New()
		return storage{books: mem.Books(), loans: mem.Loans(), tx: mem, health: mem, close: func() {}}, nil
	}

	pool, err := repo.NewPool(ctx, repo.PoolConfig{
		URL:               cfg.Database.URL,
		MaxConns:          cfg.Database.MaxConns,
		MinConns:          cfg.Database.MinConns,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return storage{}, err
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return storage{}, err
	}
	tx := repo.NewTransactor(pool)
	return storage{
		books:  repo.NewPostgresBookRepo(pool),
		loans:  repo.NewPostgresLoanRepo(pool),
		tx:     tx,
		health: tx,
		close:  pool.Close,
	}, nil
}
