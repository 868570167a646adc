package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/example/library-service/internal/domain"
)

type LoanRepo struct {
	s *Store
}

func (r *LoanRepo) FindByID(_ context.Context, id int64) (domain.Loan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.loans[id]
	if !ok {
		return domain.Loan{}, domain.ErrNotFound
	}
	return r.s.resolve(row), nil
}

func (r *LoanRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.loans[id]
	return ok, nil
}

func (r *LoanRepo) ExistsActiveByBookID(_ context.Context, bookID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.activeLoanOn(bookID, 0), nil
}

func (r *LoanRepo) ExistsByBookID(_ context.Context, bookID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.loans {
		if l.bookID == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (r *LoanRepo) Save(_ context.Context, l *domain.Loan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.books[l.Book.ID]; !ok {
		return domain.ErrBookNotFound
	}
	if !l.Returned && r.s.activeLoanOn(l.Book.ID, l.ID) {
		return domain.ErrBookOnLoan
	}
	if l.ID == 0 {
		l.ID = r.s.nextLoan
		r.s.nextLoan++
	} else if _, ok := r.s.loans[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.loans[l.ID] = loanRow{
		id:            l.ID,
		customer:      l.Customer,
		customerEmail: l.CustomerEmail,
		bookID:        l.Book.ID,
		loanDate:      l.LoanDate,
		returned:      l.Returned,
	}
	l.Book = r.s.books[l.Book.ID]
	return nil
}

func (r *LoanRepo) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.loans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.loans, id)
	return nil
}

func (r *LoanRepo) FindAll(_ context.Context, spec domain.PageSpec) (domain.Page[domain.Loan], error) {
	r.s.mu.RLock()
	all := make([]domain.Loan, 0, len(r.s.loans))
	for _, row := range r.s.loans {
		all = append(all, r.s.resolve(row))
	}
	r.s.mu.RUnlock()

	order := spec.StableSort()
	slices.SortFunc(all, func(a, b domain.Loan) int {
		for _, o := range order {
			c := compareLoans(a, b, o.Field)
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return domain.NewPage(window(all, spec), spec, int64(len(all))), nil
}

func compareLoans(a, b domain.Loan, field string) int {
	switch field {
	case domain.LoanSortCustomer:
		return cmp.Compare(a.Customer, b.Customer)
	case domain.LoanSortCustomerEmail:
		return cmp.Compare(a.CustomerEmail, b.CustomerEmail)
	case domain.LoanSortLoanDate:
		return a.LoanDate.Time().Compare(b.LoanDate.Time())
	case domain.LoanSortReturned:
		return cmp.Compare(boolRank(a.Returned), boolRank(b.Returned))
	case domain.LoanSortBookID:
		return cmp.Compare(a.Book.ID, b.Book.ID)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (s *Store) activeLoanOn(bookID, exceptID int64) bool {
	for id, l := range s.loans {
		if id != exceptID && l.bookID == bookID && !l.returned {
			return true
		}
	}
	return false
}

func (s *Store) resolve(row loanRow) domain.Loan {
	return domain.Loan{
		ID:            row.id,
		Customer:      row.customer,
		CustomerEmail: row.customerEmail,
		Book:          s.books[row.bookID],
		LoanDate:      row.loanDate,
		Returned:      row.returned,
	}
}

var _ domain.LoanRepository = (*LoanRepo)(nil)
