package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/example/library-service/internal/domain"
)

type BookRepo struct {
	s *Store
}

func (r *BookRepo) FindByID(_ context.Context, id int64) (domain.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[id]
	if !ok {
		return domain.Book{}, domain.ErrNotFound
	}
	return b, nil
}

func (r *BookRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.books[id]
	return ok, nil
}

func (r *BookRepo) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.isbnTaken(isbn, 0), nil
}

func (r *BookRepo) Save(_ context.Context, b *domain.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.ISBN != "" && r.s.isbnTaken(b.ISBN, b.ID) {
		return domain.ErrISBNTaken
	}
	if b.ID == 0 {
		b.ID = r.s.nextBook
		r.s.nextBook++
	} else if _, ok := r.s.books[b.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.books[b.ID] = *b
	return nil
}

func (r *BookRepo) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.books[id]; !ok {
		return domain.ErrNotFound
	}
	for _, l := range r.s.loans {
		if l.bookID == id {
			return domain.ErrBookHasLoans
		}
	}
	delete(r.s.books, id)
	return nil
}

func (r *BookRepo) FindAll(_ context.Context, spec domain.PageSpec) (domain.Page[domain.Book], error) {
	r.s.mu.RLock()
	all := make([]domain.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		all = append(all, b)
	}
	r.s.mu.RUnlock()

	order := spec.StableSort()
	slices.SortFunc(all, func(a, b domain.Book) int {
		for _, o := range order {
			c := compareBooks(a, b, o.Field)
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

func compareBooks(a, b domain.Book, field string) int {
	switch field {
	case domain.BookSortTitle:
		return cmp.Compare(a.Title, b.Title)
	case domain.BookSortAuthor:
		return cmp.Compare(a.Author, b.Author)
	case domain.BookSortISBN:
		return cmp.Compare(a.ISBN, b.ISBN)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

func (s *Store) isbnTaken(isbn string, exceptID int64) bool {
	for id, b := range s.books {
		if id != exceptID && b.ISBN == isbn {
			return true
		}
	}
	return false
}

// window вырезает страницу из уже отсортированного среза.
func window[T any](all []T, spec domain.PageSpec) []T {
	from := spec.Offset()
	if from >= len(all) {
		return []T{}
	}
	to := from + min(spec.Size, len(all)-from)
	return slices.Clone(all[from:to])
}

var _ domain.BookRepository = (*BookRepo)(nil)
