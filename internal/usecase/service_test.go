package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/library-service/internal/adapter/memstore"
	"github.com/example/library-service/internal/domain"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store  *memstore.Store
	books  *BookService
	loans  *LoanService
	events *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memstore.New()
	events := &recordingPublisher{}
	books := NewBookService(mem.Books(), mem.Loans(), mem, events, log)
	loans := NewLoanService(mem.Loans(), books, mem, events, log)
	return fixture{store: mem, books: books, loans: loans, events: events}
}

func (f fixture) book(t *testing.T, title, isbn string) domain.Book {
	t.Helper()
	b, err := f.books.Create(context.Background(), domain.BookInput{Title: title, Author: "someone", ISBN: isbn})
	require.NoError(t, err)
	return b
}

func TestBookCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.books.Create(ctx, domain.BookInput{Title: "Harry Potter", Author: "J.K.Rolling", ISBN: "adsa"})
	require.NoError(t, err)
	assert.Equal(t, domain.Book{ID: 1, Title: "Harry Potter", Author: "J.K.Rolling", ISBN: "adsa"}, b)

	got, err := f.books.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)
	assert.Equal(t, []string{domain.EventBookCreated}, f.events.types())
}

func TestBookCreateRejects(t *testing.T) {
	tests := []struct {
		name  string
		input domain.BookInput
		check func(error) bool
	}{
		{name: "empty title", input: domain.BookInput{Title: "", ISBN: "new"}, check: domain.IsValidation},
		{name: "blank title", input: domain.BookInput{Title: "   "}, check: domain.IsValidation},
		{name: "duplicate isbn", input: domain.BookInput{Title: "Other", ISBN: "taken"}, check: domain.IsConflict},
		{name: "duplicate isbn with spaces", input: domain.BookInput{Title: "Other", ISBN: " taken "}, check: domain.IsConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.book(t, "Existing", "taken")

			_, err := f.books.Create(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)

			page, err := f.books.FindAll(ctx, domain.DefaultPageSpec())
			require.NoError(t, err)
			assert.Equal(t, int64(1), page.TotalElements, "nothing persisted")
		})
	}
}

func TestBookCreateWithoutISBNTwice(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "A", "")
	b := f.book(t, "B", "")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestBookMissingIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.books.GetByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	_, err = f.books.Update(ctx, 404, domain.BookInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	assert.ErrorIs(t, f.books.Delete(ctx, 404), domain.ErrBookNotFound)
}

func TestBookUpdateReplacesAllFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, "Harry Potter", "adsa")

	updated, err := f.books.Update(ctx, b.ID, domain.BookInput{Title: "Harry Potter 2"})
	require.NoError(t, err)
	assert.Equal(t, domain.Book{ID: b.ID, Title: "Harry Potter 2"}, updated)

	got, err := f.books.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestBookUpdateDuplicateISBNRejectedByStorage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, "A", "isbn-a")
	b := f.book(t, "B", "isbn-b")

	_, err := f.books.Update(ctx, b.ID, domain.BookInput{Title: "B", ISBN: "isbn-a"})
	assert.ErrorIs(t, err, domain.ErrISBNTaken)

	got, err := f.books.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "isbn-b", got.ISBN)
}

func TestBookDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	free := f.book(t, "Free", "")
	lent := f.book(t, "Lent", "")
	_, err := f.loans.Create(ctx, domain.LoanInput{Customer: "c", BookID: lent.ID})
	require.NoError(t, err)

	require.NoError(t, f.books.Delete(ctx, free.ID))
	_, err = f.books.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	assert.ErrorIs(t, f.books.Delete(ctx, lent.ID), domain.ErrBookHasLoans)
}

func TestBookFindAllValidatesSpec(t *testing.T) {
	f := newFixture(t)
	_, err := f.books.FindAll(context.Background(), domain.PageSpec{Size: 10, Sort: []domain.SortOrder{{Field: "customer"}}})
	assert.True(t, domain.IsValidation(err))
}

func TestLoanScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	book, err := f.books.Create(ctx, domain.BookInput{Title: "Harry Potter", Author: "J.K.Rolling", ISBN: "adsa"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.ID)

	loan, err := f.loans.Create(ctx, domain.LoanInput{Customer: "Fulano", BookID: 1})
	require.NoError(t, err)
	assert.Equal(t, book, loan.Book)
	assert.False(t, loan.Returned)

	_, err = f.loans.Create(ctx, domain.LoanInput{Customer: "Ciclano", BookID: 1})
	assert.ErrorIs(t, err, domain.ErrBookOnLoan)

	returned, err := f.loans.ReturnBook(ctx, loan.ID, true)
	require.NoError(t, err)
	assert.True(t, returned.Returned)

	third, err := f.loans.Create(ctx, domain.LoanInput{Customer: "Beltrano", BookID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, loan.ID, third.ID)

	page, err := f.loans.FindAll(ctx, domain.DefaultPageSpec())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)
}

func TestLoanCreateConflictPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, "Dune", "")
	_, err := f.loans.Create(ctx, domain.LoanInput{Customer: "a", BookID: b.ID})
	require.NoError(t, err)

	_, err = f.loans.Create(ctx, domain.LoanInput{Customer: "b", BookID: b.ID})
	require.True(t, domain.IsConflict(err))

	page, err := f.loans.FindAll(ctx, domain.DefaultPageSpec())
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestLoanCreateUnknownBook(t *testing.T) {
	f := newFixture(t)
	_, err := f.loans.Create(context.Background(), domain.LoanInput{Customer: "a", BookID: 77})
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestLoanCreateAlreadyReturnedIsAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, "Dune", "")

	_, err := f.loans.Create(ctx, domain.LoanInput{Customer: "old", BookID: b.ID, Returned: true})
	require.NoError(t, err)
	_, err = f.loans.Create(ctx, domain.LoanInput{Customer: "new", BookID: b.ID})
	require.NoError(t, err)
}

func TestLoanReturnBookTouchesOnlyFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, "Dune", "")
	date := domain.NewDate(2024, 1, 15)
	loan, err := f.loans.Create(ctx, domain.LoanInput{Customer: "Fulano", CustomerEmail: "fulano@example.com", BookID: b.ID, LoanDate: date})
	require.NoError(t, err)

	got, err := f.loans.ReturnBook(ctx, loan.ID, true)
	require.NoError(t, err)

	want := loan
	want.Returned = true
	assert.Equal(t, want, got)

	stored, err := f.loans.FindByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored)

	again, err := f.loans.ReturnBook(ctx, loan.ID, true)
	require.NoError(t, err, "marking an already returned loan is not rejected")
	assert.True(t, again.Returned)
}

func TestLoanReturnBookUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.loans.ReturnBook(context.Background(), 5, true)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestLoanUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.book(t, "First", "")
	second := f.book(t, "Second", "")
	loan, err := f.loans.Create(ctx, domain.LoanInput{Customer: "a", BookID: first.ID})
	require.NoError(t, err)

	in := domain.LoanInput{Customer: "b", CustomerEmail: "b@example.com", BookID: second.ID, LoanDate: domain.NewDate(2024, 6, 1), Returned: false}
	updated, err := f.loans.Update(ctx, loan.ID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.Loan{ID: loan.ID, Customer: "b", CustomerEmail: "b@example.com", Book: second, LoanDate: in.LoanDate}, updated)

	_, err = f.loans.Create(ctx, domain.LoanInput{Customer: "c", BookID: first.ID})
	require.NoError(t, err, "first book is free again")

	_, err = f.loans.Update(ctx, 99, in)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	in.BookID = 99
	_, err = f.loans.Update(ctx, loan.ID, in)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestLoanUpdateOntoLentBookRejectedByStorage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, "A", "")
	b := f.book(t, "B", "")
	_, err := f.loans.Create(ctx, domain.LoanInput{Customer: "x", BookID: a.ID})
	require.NoError(t, err)
	loanB, err := f.loans.Create(ctx, domain.LoanInput{Customer: "y", BookID: b.ID})
	require.NoError(t, err)

	_, err = f.loans.Update(ctx, loanB.ID, domain.LoanInput{Customer: "y", BookID: a.ID})
	assert.ErrorIs(t, err, domain.ErrBookOnLoan)

	stored, err := f.loans.FindByID(ctx, loanB.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, stored.Book.ID, "rolled back")
}

func TestLoanDeleteAndFind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, "Dune", "")
	loan, err := f.loans.Create(ctx, domain.LoanInput{Customer: "a", BookID: b.ID})
	require.NoError(t, err)

	got, err := f.loans.FindByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, loan, got)

	require.NoError(t, f.loans.Delete(ctx, loan.ID))
	_, err = f.loans.FindByID(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
	assert.ErrorIs(t, f.loans.Delete(ctx, loan.ID), domain.ErrLoanNotFound)

	require.NoError(t, f.books.Delete(ctx, b.ID), "book free of references can go")
}

func TestLoanFindAllValidatesSpec(t *testing.T) {
	f := newFixture(t)
	_, err := f.loans.FindAll(context.Background(), domain.PageSpec{Page: -1, Size: 10})
	assert.True(t, domain.IsValidation(err))
}

func TestEventsPublishedAfterCommitOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t, "Dune", "")
	loan, err := f.loans.Create(ctx, domain.LoanInput{Customer: "a", BookID: b.ID})
	require.NoError(t, err)
	_, _ = f.loans.Create(ctx, domain.LoanInput{Customer: "b", BookID: b.ID})
	_, err = f.loans.ReturnBook(ctx, loan.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.loans.Delete(ctx, loan.ID))

	assert.Equal(t, []string{
		domain.EventBookCreated,
		domain.EventLoanCreated,
		domain.EventLoanReturned,
		domain.EventLoanDeleted,
	}, f.events.types())
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	b, err := f.books.Create(context.Background(), domain.BookInput{Title: "Dune"})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
}

func TestImportBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := ImportBook{Books: f.books, Log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, uc.Execute(ctx, []byte(`{"title":"Dune","author":"Herbert","isbn":"x1"}`)))
	require.NoError(t, uc.Execute(ctx, []byte(`{"title":"Dune again","isbn":"x1"}`)), "conflict is acked")
	require.NoError(t, uc.Execute(ctx, []byte(`{"author":"nobody"}`)), "validation error is acked")
	require.NoError(t, uc.Execute(ctx, []byte(`{broken`)), "malformed message is acked")

	page, err := f.books.FindAll(ctx, domain.DefaultPageSpec())
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Herbert", page.Content[0].Author)
}

type failingTx struct{ err error }

func (t failingTx) WithinTx(context.Context, func(context.Context) error) error { return t.err }

func TestImportBookReturnsStorageErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memstore.New()
	storageErr := errors.New("connection reset")
	books := NewBookService(mem.Books(), mem.Loans(), failingTx{err: storageErr}, nil, log)

	err := ImportBook{Books: books, Log: log}.Execute(context.Background(), []byte(`{"title":"Dune"}`))
	assert.ErrorIs(t, err, storageErr, "storage errors trigger redelivery")
}
