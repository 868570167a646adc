package memstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/library-service/internal/domain"
)

func seedBooks(t *testing.T, s *Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		b := domain.Book{Title: fmt.Sprintf("title-%02d", i), Author: fmt.Sprintf("author-%d", i%3)}
		require.NoError(t, s.Books().Save(context.Background(), &b))
	}
}

func TestBookSaveAssignsIDsAndEnforcesISBN(t *testing.T) {
	ctx := context.Background()
	s := New()
	books := s.Books()

	a := domain.Book{Title: "a", ISBN: "111"}
	require.NoError(t, books.Save(ctx, &a))
	assert.Equal(t, int64(1), a.ID)

	b := domain.Book{Title: "b"}
	require.NoError(t, books.Save(ctx, &b))
	assert.Equal(t, int64(2), b.ID)

	dup := domain.Book{Title: "dup", ISBN: "111"}
	assert.ErrorIs(t, books.Save(ctx, &dup), domain.ErrISBNTaken)

	b.ISBN = "111"
	assert.ErrorIs(t, books.Save(ctx, &b), domain.ErrISBNTaken)

	a.Title = "a2"
	require.NoError(t, books.Save(ctx, &a), "saving a book with its own isbn is fine")

	ghost := domain.Book{ID: 42, Title: "ghost"}
	assert.ErrorIs(t, books.Save(ctx, &ghost), domain.ErrNotFound)

	taken, err := books.ExistsByISBN(ctx, "111")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestLoanSaveEnforcesSingleActiveLoan(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedBooks(t, s, 1)
	loans := s.Loans()

	first := domain.Loan{Customer: "a", Book: domain.Book{ID: 1}}
	require.NoError(t, loans.Save(ctx, &first))
	assert.Equal(t, "title-00", first.Book.Title, "book resolved on save")

	second := domain.Loan{Customer: "b", Book: domain.Book{ID: 1}}
	assert.ErrorIs(t, loans.Save(ctx, &second), domain.ErrBookOnLoan)

	returned := domain.Loan{Customer: "c", Book: domain.Book{ID: 1}, Returned: true}
	require.NoError(t, loans.Save(ctx, &returned), "returned loans do not count")

	first.Returned = true
	require.NoError(t, loans.Save(ctx, &first))
	require.NoError(t, loans.Save(ctx, &second))

	returned.Returned = false
	assert.ErrorIs(t, loans.Save(ctx, &returned), domain.ErrBookOnLoan, "reactivating collides with active loan")

	orphan := domain.Loan{Book: domain.Book{ID: 99}}
	assert.ErrorIs(t, loans.Save(ctx, &orphan), domain.ErrBookNotFound)
}

func TestDeleteBookWithLoansRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedBooks(t, s, 2)
	l := domain.Loan{Book: domain.Book{ID: 1}, Returned: true}
	require.NoError(t, s.Loans().Save(ctx, &l))

	assert.ErrorIs(t, s.Books().DeleteByID(ctx, 1), domain.ErrBookHasLoans)
	assert.NoError(t, s.Books().DeleteByID(ctx, 2))
	assert.ErrorIs(t, s.Books().DeleteByID(ctx, 2), domain.ErrNotFound)

	require.NoError(t, s.Loans().DeleteByID(ctx, l.ID))
	assert.NoError(t, s.Books().DeleteByID(ctx, 1))
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedBooks(t, s, 1)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		b := domain.Book{Title: "inside"}
		require.NoError(t, s.Books().Save(ctx, &b))
		require.NoError(t, s.Books().DeleteByID(ctx, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, _ := s.Books().ExistsByID(ctx, 1)
	assert.True(t, ok, "deleted book restored")
	ok, _ = s.Books().ExistsByID(ctx, 2)
	assert.False(t, ok, "inserted book discarded")

	b := domain.Book{Title: "after"}
	require.NoError(t, s.Books().Save(ctx, &b))
	assert.Equal(t, int64(2), b.ID, "id sequence restored")
}

func TestFindAllPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	const n = 23
	seedBooks(t, s, n)

	for _, size := range []int{1, 5, 10, 23, 50} {
		for page := 0; page < 6; page++ {
			spec := domain.PageSpec{Page: page, Size: size}
			p, err := s.Books().FindAll(ctx, spec)
			require.NoError(t, err)
			want := min(size, max(0, n-page*size))
			assert.Len(t, p.Content, want, "page %d size %d", page, size)
			assert.Equal(t, int64(n), p.TotalElements)

			again, err := s.Books().FindAll(ctx, spec)
			require.NoError(t, err)
			assert.Equal(t, p, again, "idempotent without writes")
		}
	}

	for _, size := range []int{1, 2, domain.MaxPageSize} {
		p, err := s.Books().FindAll(ctx, domain.PageSpec{Page: math.MaxInt, Size: size})
		require.NoError(t, err)
		assert.Empty(t, p.Content, "size %d", size)
		assert.True(t, p.Last)
		assert.Equal(t, int64(n), p.TotalElements)

		loans, err := s.Loans().FindAll(ctx, domain.PageSpec{Page: math.MaxInt, Size: size})
		require.NoError(t, err)
		assert.Empty(t, loans.Content)
	}
}

func TestFindAllSortIsStable(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedBooks(t, s, 6)

	p, err := s.Books().FindAll(ctx, domain.PageSpec{Size: 6, Sort: []domain.SortOrder{{Field: domain.BookSortAuthor, Desc: true}}})
	require.NoError(t, err)
	var ids []int64
	for _, b := range p.Content {
		ids = append(ids, b.ID)
	}
	// author-2: 3,6; author-1: 2,5; author-0: 1,4
	assert.Equal(t, []int64{3, 6, 2, 5, 1, 4}, ids)
}

func TestLoanFindAllSortByBook(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedBooks(t, s, 3)
	for _, bookID := range []int64{3, 1, 2} {
		l := domain.Loan{Customer: fmt.Sprintf("c%d", bookID), Book: domain.Book{ID: bookID}}
		require.NoError(t, s.Loans().Save(ctx, &l))
	}

	p, err := s.Loans().FindAll(ctx, domain.PageSpec{Size: 10, Sort: []domain.SortOrder{{Field: domain.LoanSortBookID}}})
	require.NoError(t, err)
	require.Len(t, p.Content, 3)
	assert.Equal(t, "c1", p.Content[0].Customer)
	assert.Equal(t, "title-00", p.Content[0].Book.Title)
	assert.Equal(t, "c3", p.Content[2].Customer)
}
