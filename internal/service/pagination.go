package service

import "github.com/stemsi/siakad-backend/internal/response"

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// page normalizes page/perPage and returns the matching limit and offset.
func page(p, perPage int) (int, int, int, int) {
	if p < 1 {
		p = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return p, perPage, perPage, (p - 1) * perPage
}

func newPagination(p, perPage, total int) *response.Pagination {
	return response.NewPagination(p, perPage, total)
}
