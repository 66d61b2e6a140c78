// Package view derives filtered and sorted projections of cached collections.
package view

import "github.com/naveenspark/busdesk/pkg/domain"

// ResolveName returns the display name of the first item whose id equals id.
// Unset ids (<= 0) and ids missing from items resolve to "".
func ResolveName[T domain.Entity](id int64, items []T) string {
	if id <= 0 {
		return ""
	}
	for _, it := range items {
		if it.EntityID() == id {
			return it.DisplayName()
		}
	}
	return ""
}
