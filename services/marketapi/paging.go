package marketapi

import (
	"net/http"
	"strconv"

	"github.com/MarcGrol/marketplacebackend/lib/myerrors"
)

const (
	defaultPageSize = 5
	maxPageSize     = 100
)

// Page is zero-based internally. The externally visible page number is
// 1-based and translated here, before it reaches any service.
type Page struct {
	Number int
	Size   int
}

func PageFromRequest(r *http.Request) (Page, error) {
	pageNumber := 1
	pageSize := defaultPageSize

	var err error
	if value := r.URL.Query().Get("page"); value != "" {
		pageNumber, err = strconv.Atoi(value)
		if err != nil || pageNumber < 1 {
			return Page{}, myerrors.NewInvalidInputErrorf("invalid page number %q", value)
		}
	}
	if value := r.URL.Query().Get("size"); value != "" {
		pageSize, err = strconv.Atoi(value)
		if err != nil || pageSize < 1 || pageSize > maxPageSize {
			return Page{}, myerrors.NewInvalidInputErrorf("invalid page size %q", value)
		}
	}

	return Page{
		Number: pageNumber - 1,
		Size:   pageSize,
	}, nil
}

// Paginate slices out one page and reports whether a next page exists.
func Paginate[T any](items []T, page Page) ([]T, bool) {
	start := page.Number * page.Size
	if start >= len(items) {
		return []T{}, false
	}

	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}

	return items[start:end], end < len(items)
}
