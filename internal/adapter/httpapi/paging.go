package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/library-service/internal/domain"
)

// parsePageSpec читает page, size и повторяемый sort=field[,asc|desc].
func parsePageSpec(q url.Values) (domain.PageSpec, error) {
	spec := domain.DefaultPageSpec()
	if v := q.Get("page"); !isBlank(v) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return spec, fmt.Errorf("%w: page must be an integer", domain.ErrValidation)
		}
		spec.Page = n
	}
	if v := q.Get("size"); !isBlank(v) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return spec, fmt.Errorf("%w: size must be an integer", domain.ErrValidation)
		}
		spec.Size = n
	}
	for _, raw := range q["sort"] {
		if isBlank(raw) {
			continue
		}
		parts := strings.Split(raw, ",")
		order := domain.SortOrder{Field: strings.TrimSpace(parts[0])}
		if len(parts) > 2 {
			return spec, fmt.Errorf("%w: sort %q must be field[,asc|desc]", domain.ErrValidation, raw)
		}
		if len(parts) == 2 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "asc", "":
			case "desc":
				order.Desc = true
			default:
				return spec, fmt.Errorf("%w: sort direction in %q must be asc or desc", domain.ErrValidation, raw)
			}
		}
		spec.Sort = append(spec.Sort, order)
	}
	return spec, nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
