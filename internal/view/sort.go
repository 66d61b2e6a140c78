package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is the sort order.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Collation is the language used for text comparison.
var Collation = language.Und

// Sort returns a stably sorted copy of items ordered by f.
func Sort[T any](items []T, f Field[T], dir Direction) []T {
	out := slices.Clone(items)
	cmpFn := comparator(f)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmpFn(a, b, dir)
	})
	return out
}

func comparator[T any](f Field[T]) func(a, b T, dir Direction) int {
	switch f.Kind {
	case Number:
		return func(a, b T, dir Direction) int {
			return directed(cmp.Compare(f.Num(a), f.Num(b)), dir)
		}
	case TimeOfDay:
		return func(a, b T, dir Direction) int {
			ta, okA := parseTimeOfDay(f.Value(a))
			tb, okB := parseTimeOfDay(f.Value(b))
			switch {
			case !okA && !okB:
				return 0
			case !okA:
				return 1
			case !okB:
				return -1
			}
			return directed(cmp.Compare(ta, tb), dir)
		}
	default:
		col := collate.New(Collation, collate.IgnoreCase)
		return func(a, b T, dir Direction) int {
			return directed(col.CompareString(f.Value(a), f.Value(b)), dir)
		}
	}
}

func directed(c int, dir Direction) int {
	if dir == Desc {
		return -c
	}
	return c
}

var timeLayouts = []string{"15:04:05", "15:04"}

// parseTimeOfDay returns the offset since midnight of an HH:MM[:SS] value.
func parseTimeOfDay(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}
