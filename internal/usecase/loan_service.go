package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/library-service/internal/domain"
)

// LoanService владеет инвариантом "не более одной активной выдачи на книгу"
// и разрешает ссылки на книги через BookService.
type LoanService struct {
	Loans  domain.LoanRepository
	Books  *BookService
	Tx     domain.Transactor
	Events domain.EventPublisher
	Log    *slog.Logger
}

func NewLoanService(loans domain.LoanRepository, books *BookService, tx domain.Transactor, events domain.EventPublisher, log *slog.Logger) *LoanService {
	if events == nil {
		events = domain.NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &LoanService{Loans: loans, Books: books, Tx: tx, Events: events, Log: log}
}

// Create проверяет активную выдачу до разрешения книги, поэтому для несуществующей
// книги возвращается ErrBookNotFound, а для выданной ErrBookOnLoan.
func (s *LoanService) Create(ctx context.Context, in domain.LoanInput) (domain.Loan, error) {
	var loan domain.Loan
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		onLoan, err := s.Loans.ExistsActiveByBookID(ctx, in.BookID)
		if err != nil {
			return err
		}
		if onLoan {
			return domain.ErrBookOnLoan
		}
		book, err := s.Books.GetByID(ctx, in.BookID)
		if err != nil {
			return err
		}
		loan = newLoan(in, book)
		return s.Loans.Save(ctx, &loan)
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.Log.InfoContext(ctx, "loan created", logAttrLoanID, loan.ID, logAttrBookID, loan.Book.ID)
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventLoanCreated, loan))
	return loan, nil
}

// ReturnBook меняет только флаг returned; остальные поля выдачи не трогаются.
func (s *LoanService) ReturnBook(ctx context.Context, id int64, returned bool) (domain.Loan, error) {
	var loan domain.Loan
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if loan, err = s.FindByID(ctx, id); err != nil {
			return err
		}
		loan.Returned = returned
		return s.Loans.Save(ctx, &loan)
	})
	if err != nil {
		return domain.Loan{}, err
	}
	s.Log.InfoContext(ctx, "loan return flag set", logAttrLoanID, loan.ID, logAttrReturned, returned)
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventLoanReturned, loan))
	return loan, nil
}

// Update заменяет все поля выдачи и заново разрешает книгу.
// Исключительность активной выдачи здесь не проверяется; её обеспечивает хранилище.
func (s *LoanService) Update(ctx context.Context, id int64, in domain.LoanInput) (domain.Loan, error) {
	var loan domain.Loan
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		book, err := s.Books.GetByID(ctx, in.BookID)
		if err != nil {
			return err
		}
		loan = newLoan(in, book)
		loan.ID = id
		return s.Loans.Save(ctx, &loan)
	})
	if err != nil {
		return domain.Loan{}, err
	}
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventLoanUpdated, loan))
	return loan, nil
}

func (s *LoanService) Delete(ctx context.Context, id int64) error {
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.Loans.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrLoanNotFound
		}
		return loanErr(s.Loans.DeleteByID(ctx, id))
	})
	if err != nil {
		return err
	}
	s.Log.InfoContext(ctx, "loan deleted", logAttrLoanID, id)
	publish(ctx, s.Events, s.Log, domain.NewEvent(domain.EventLoanDeleted, deletedPayload{ID: id}))
	return nil
}

func (s *LoanService) FindAll(ctx context.Context, spec domain.PageSpec) (domain.Page[domain.Loan], error) {
	if err := spec.Validate(domain.LoanSortFields); err != nil {
		return domain.Page[domain.Loan]{}, err
	}
	return s.Loans.FindAll(ctx, spec)
}

func (s *LoanService) FindByID(ctx context.Context, id int64) (domain.Loan, error) {
	loan, err := s.Loans.FindByID(ctx, id)
	if err != nil {
		return domain.Loan{}, loanErr(err)
	}
	return loan, nil
}

func newLoan(in domain.LoanInput, book domain.Book) domain.Loan {
	return domain.Loan{
		Customer:      in.Customer,
		CustomerEmail: in.CustomerEmail,
		Book:          book,
		LoanDate:      in.LoanDate,
		Returned:      in.Returned,
	}
}

func loanErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrLoanNotFound
	}
	return err
}
