package domain

import (
	"fmt"
	"math"
	"slices"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// SortOrder — одно поле сортировки.
type SortOrder struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// PageSpec описывает ограниченный упорядоченный срез коллекции. Page считается с нуля.
type PageSpec struct {
	Page int
	Size int
	Sort []SortOrder
}

// DefaultPageSpec — первая страница размера DefaultPageSize без явной сортировки.
func DefaultPageSpec() PageSpec {
	return PageSpec{Page: 0, Size: DefaultPageSize}
}

// Offset — число записей, пропускаемых перед страницей.
// При переполнении Page*Size насыщается до math.MaxInt: такая страница всегда пуста.
func (s PageSpec) Offset() int {
	if s.Page <= 0 || s.Size <= 0 {
		return 0
	}
	if s.Page > math.MaxInt/s.Size {
		return math.MaxInt
	}
	return s.Page * s.Size
}

// Validate проверяет границы страницы и то, что сортировка идёт только по разрешённым полям.
func (s PageSpec) Validate(allowed []string) error {
	if s.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrValidation)
	}
	if s.Size < 1 || s.Size > MaxPageSize {
		return fmt.Errorf("%w: size must be between 1 and %d", ErrValidation, MaxPageSize)
	}
	for _, o := range s.Sort {
		if !slices.Contains(allowed, o.Field) {
			return fmt.Errorf("%w: cannot sort by %q", ErrValidation, o.Field)
		}
	}
	return nil
}

// StableSort возвращает сортировку, дополненную "id asc", если id ещё не участвует.
func (s PageSpec) StableSort() []SortOrder {
	out := slices.Clone(s.Sort)
	for _, o := range out {
		if o.Field == "id" {
			return out
		}
	}
	return append(out, SortOrder{Field: "id"})
}

// Page — страница результатов вместе с метаданными.
type Page[T any] struct {
	Content          []T         `json:"content"`
	Number           int         `json:"number"`
	Size             int         `json:"size"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	NumberOfElements int         `json:"number_of_elements"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	Sort             []SortOrder `json:"sort"`
}

// NewPage собирает страницу по содержимому и общему числу записей.
func NewPage[T any](content []T, spec PageSpec, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if spec.Size > 0 {
		totalPages = int((total + int64(spec.Size) - 1) / int64(spec.Size))
	}
	return Page[T]{
		Content:          content,
		Number:           spec.Page,
		Size:             spec.Size,
		TotalElements:    total,
		TotalPages:       totalPages,
		NumberOfElements: len(content),
		First:            spec.Page == 0,
		Last:             spec.Page >= totalPages-1,
		Sort:             spec.Sort,
	}
}

// MapPage применяет проекцию к каждому элементу страницы, метаданные не меняются.
func MapPage[T, S any](p Page[T], project func(T) S) Page[S] {
	content := make([]S, len(p.Content))
	for i, v := range p.Content {
		content[i] = project(v)
	}
	return Page[S]{
		Content:          content,
		Number:           p.Number,
		Size:             p.Size,
		TotalElements:    p.TotalElements,
		TotalPages:       p.TotalPages,
		NumberOfElements: p.NumberOfElements,
		First:            p.First,
		Last:             p.Last,
		Sort:             p.Sort,
	}
}
