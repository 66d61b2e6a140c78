package view

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Filter keeps the items where any searchable field contains query, compared
// with Unicode case folding. A blank or whitespace-only query keeps
// everything; otherwise the query is matched as typed, spaces included.
// Order is kept.
func Filter[T any](items []T, query string, fields []Field[T]) []T {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(items)
	}

	fold := cases.Fold()
	needle := fold.String(query)
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields {
			if !f.Searchable {
				continue
			}
			if strings.Contains(fold.String(f.Value(it)), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
