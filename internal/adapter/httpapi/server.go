package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/library-service/internal/domain"
)

// BookService — операции над книгами, доступные транспорту.
type BookService interface {
	Create(ctx context.Context, in domain.BookInput) (domain.Book, error)
	GetByID(ctx context.Context, id int64) (domain.Book, error)
	Update(ctx context.Context, id int64, in domain.BookInput) (domain.Book, error)
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context, spec domain.PageSpec) (domain.Page[domain.Book], error)
}

// LoanService — операции над выдачами, доступные транспорту.
type LoanService interface {
	Create(ctx context.Context, in domain.LoanInput) (domain.Loan, error)
	ReturnBook(ctx context.Context, id int64, returned bool) (domain.Loan, error)
	Update(ctx context.Context, id int64, in domain.LoanInput) (domain.Loan, error)
	Delete(ctx context.Context, id int64) error
	FindAll(ctx context.Context, spec domain.PageSpec) (domain.Page[domain.Loan], error)
	FindByID(ctx context.Context, id int64) (domain.Loan, error)
}

type Server struct {
	Router *mux.Router
	Books  BookService
	Loans  LoanService
	Health domain.Pinger
	Log    *slog.Logger
}

func NewServer(books BookService, loans LoanService, health domain.Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{Router: mux.NewRouter(), Books: books, Loans: loans, Health: health, Log: log}
	s.Router.Use(s.logRequests)

	b := s.Router.PathPrefix("/books").Subrouter()
	b.HandleFunc("", s.handleCreateBook).Methods(http.MethodPost)
	b.HandleFunc("/all", s.handleListBooks).Methods(http.MethodGet)
	b.HandleFunc("/{id:[0-9]+}", s.handleGetBook).Methods(http.MethodGet)
	b.HandleFunc("/{id:[0-9]+}", s.handleUpdateBook).Methods(http.MethodPut)
	b.HandleFunc("/{id:[0-9]+}", s.handleDeleteBook).Methods(http.MethodDelete)

	l := s.Router.PathPrefix("/loans").Subrouter()
	l.HandleFunc("", s.handleCreateLoan).Methods(http.MethodPost)
	l.HandleFunc("/all", s.handleListLoans).Methods(http.MethodGet)
	l.HandleFunc("/{id:[0-9]+}", s.handleGetLoan).Methods(http.MethodGet)
	l.HandleFunc("/{id:[0-9]+}", s.handleUpdateLoan).Methods(http.MethodPut)
	l.HandleFunc("/{id:[0-9]+}", s.handleReturnLoan).Methods(http.MethodPatch)
	l.HandleFunc("/{id:[0-9]+}", s.handleDeleteLoan).Methods(http.MethodDelete)

	s.Router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Health.Ping(ctx); err != nil {
			s.Log.WarnContext(r.Context(), "health check failed", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
