package services

import "strings"

// normaliseIDs removes duplicates and zero values while preserving order.
func normaliseIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Pagination describes the page window requested by a list endpoint.
type Pagination struct {
	Page    int
	PerPage int
}

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

func (p Pagination) normalise() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.PerPage
}

// sortColumn resolves a requested sort field against a whitelist,
// falling back to the given default column.
func sortColumn(requested, fallback string, allowed map[string]string) string {
	if column, ok := allowed[strings.ToLower(strings.TrimSpace(requested))]; ok {
		return column
	}
	return fallback
}

// sortDirection normalises a requested sort order to ASC or DESC.
func sortDirection(requested string) string {
	if strings.EqualFold(strings.TrimSpace(requested), "desc") {
		return "DESC"
	}
	return "ASC"
}
