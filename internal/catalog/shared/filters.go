// Package shared holds list helpers common to the catalog packages.
package shared

import (
	"net/url"
	"strings"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters represents catalog list query parameters.
type ListFilters struct {
	Search  string
	SortBy  string
	SortDir string
}

// FiltersFromQuery reads search, sort and dir from a query string.
func FiltersFromQuery(q url.Values) ListFilters {
	dir := strings.ToLower(q.Get("dir"))
	if dir != SortDesc {
		dir = SortAsc
	}
	return ListFilters{
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  strings.ToLower(q.Get("sort")),
		SortDir: dir,
	}
}

// CacheParts renders the filters as cache key segments.
func (f ListFilters) CacheParts() []string {
	return []string{"list", "q=" + url.QueryEscape(f.Search), "sort=" + f.SortBy, "dir=" + f.SortDir}
}

// OrderBy returns an ORDER BY clause restricted to the allowed columns.
// Unknown columns fall back to creation order.
func (f ListFilters) OrderBy(allowed ...string) string {
	dir := "ASC"
	if f.SortDir == SortDesc {
		dir = "DESC"
	}
	for _, col := range allowed {
		if col == f.SortBy {
			return col + " " + dir + ", id " + dir
		}
	}
	return "created_at " + dir + ", id " + dir
}
