package httpapi

import "github.com/example/library-service/internal/domain"

type BookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

func (r BookRequest) input() domain.BookInput {
	return domain.BookInput{Title: r.Title, Author: r.Author, ISBN: r.ISBN}
}

type BookResponse struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn,omitempty"`
}

func toBookResponse(b domain.Book) BookResponse {
	return BookResponse{ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN}
}

type LoanRequest struct {
	Customer      string      `json:"customer"`
	CustomerEmail string      `json:"customerEmail"`
	BookID        int64       `json:"bookId"`
	LoanDate      domain.Date `json:"loanDate"`
	Returned      bool        `json:"returned"`
}

func (r LoanRequest) input() domain.LoanInput {
	return domain.LoanInput{
		Customer:      r.Customer,
		CustomerEmail: r.CustomerEmail,
		BookID:        r.BookID,
		LoanDate:      r.LoanDate,
		Returned:      r.Returned,
	}
}

// ReturnRequest — тело PATCH /loans/{id}; отсутствие returned означает true.
type ReturnRequest struct {
	Returned *bool `json:"returned"`
}

func (r ReturnRequest) value() bool {
	if r.Returned == nil {
		return true
	}
	return *r.Returned
}

type LoanResponse struct {
	ID            int64        `json:"id"`
	Customer      string       `json:"customer"`
	CustomerEmail string       `json:"customerEmail"`
	Book          BookResponse `json:"book"`
	LoanDate      domain.Date  `json:"loanDate"`
	Returned      bool         `json:"returned"`
}

func toLoanResponse(l domain.Loan) LoanResponse {
	return LoanResponse{
		ID:            l.ID,
		Customer:      l.Customer,
		CustomerEmail: l.CustomerEmail,
		Book:          toBookResponse(l.Book),
		LoanDate:      l.LoanDate,
		Returned:      l.Returned,
	}
}

type SortResponse struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type PageResponse[T any] struct {
	Content          []T            `json:"content"`
	Number           int            `json:"number"`
	Size             int            `json:"size"`
	TotalElements    int64          `json:"totalElements"`
	TotalPages       int            `json:"totalPages"`
	NumberOfElements int            `json:"numberOfElements"`
	First            bool           `json:"first"`
	Last             bool           `json:"last"`
	Sort             []SortResponse `json:"sort"`
}

// toPageResponse применяет проекцию project к странице доменных сущностей.
func toPageResponse[T, S any](p domain.Page[T], project func(T) S) PageResponse[S] {
	mapped := domain.MapPage(p, project)
	sort := make([]SortResponse, 0, len(mapped.Sort))
	for _, o := range mapped.Sort {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		sort = append(sort, SortResponse{Property: o.Field, Direction: dir})
	}
	return PageResponse[S]{
		Content:          mapped.Content,
		Number:           mapped.Number,
		Size:             mapped.Size,
		TotalElements:    mapped.TotalElements,
		TotalPages:       mapped.TotalPages,
		NumberOfElements: mapped.NumberOfElements,
		First:            mapped.First,
		Last:             mapped.Last,
		Sort:             sort,
	}
}
