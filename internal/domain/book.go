package domain

import "strings"

// Book — доменная сущность книги. ISBN "" означает отсутствие ISBN.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// BookInput — входные данные для создания и полного обновления книги.
type BookInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// Normalize обрезает пробелы по краям ISBN, чтобы " " не считался ISBN.
func (in BookInput) Normalize() BookInput {
	in.ISBN = strings.TrimSpace(in.ISBN)
	return in
}

// Apply перезаписывает все изменяемые поля книги, идентификатор сохраняется.
func (b *Book) Apply(in BookInput) {
	b.Title = in.Title
	b.Author = in.Author
	b.ISBN = in.ISBN
}

// Поля, по которым разрешена сортировка списка книг.
const (
	BookSortID     = "id"
	BookSortTitle  = "title"
	BookSortAuthor = "author"
	BookSortISBN   = "isbn"
)

var BookSortFields = []string{BookSortID, BookSortTitle, BookSortAuthor, BookSortISBN}
