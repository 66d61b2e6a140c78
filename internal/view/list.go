package view

import (
	"slices"
	"sync"

	"github.com/naveenspark/busdesk/pkg/domain"
)

// Source is a versioned collection, such as a store cache.
type Source[T any] interface {
	Items() []T
	Version() uint64
}

// Versioned is anything whose changes should invalidate a list, typically a
// cache that a reference field resolves against.
type Versioned interface {
	Version() uint64
}

// List is the filtered and sorted projection of a source. It recomputes
// lazily when the query, the sort or a version it depends on changes.
type List[T domain.Entity] struct {
	src    Source[T]
	fields func() []Field[T]
	deps   []Versioned

	mu       sync.Mutex
	query    string
	sortBy   string
	dir      Direction
	cache    []T
	columns  []Field[T]
	computed bool
	seen     []uint64
	key      listKey
}

type listKey struct {
	query  string
	sortBy string
	dir    Direction
}

// NewList builds a list over src. fields is called on every recompute so
// reference fields see fresh lookups; deps are the caches those lookups read.
func NewList[T domain.Entity](src Source[T], fields func() []Field[T], deps ...Versioned) *List[T] {
	return &List[T]{src: src, fields: fields, deps: deps}
}

// SetQuery changes the filter string.
func (l *List[T]) SetQuery(q string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = q
}

// Query returns the filter string.
func (l *List[T]) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// SortBy sorts by the named field. An empty name keeps server order.
func (l *List[T]) SortBy(name string, dir Direction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sortBy, l.dir = name, dir
}

// Sort returns the sort field and direction.
func (l *List[T]) Sort() (string, Direction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortBy, l.dir
}

// NextSort moves to the next field in column order, wrapping to server order
// after the last one, and returns the new field name.
func (l *List[T]) NextSort() string {
	cols := l.fields()
	l.mu.Lock()
	defer l.mu.Unlock()
	next := ""
	if l.sortBy == "" && len(cols) > 0 {
		next = cols[0].Name
	} else {
		for i, f := range cols {
			if f.Name == l.sortBy && i+1 < len(cols) {
				next = cols[i+1].Name
				break
			}
		}
	}
	l.sortBy = next
	return next
}

// ToggleDirection flips the sort direction.
func (l *List[T]) ToggleDirection() Direction {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dir = l.dir.Toggle()
	return l.dir
}

// Items returns sort(filter(source)).
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshLocked()
	return slices.Clone(l.cache)
}

// Columns returns the fields as of the last recompute.
func (l *List[T]) Columns() []Field[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshLocked()
	return l.columns
}

func (l *List[T]) refreshLocked() {
	key := listKey{query: l.query, sortBy: l.sortBy, dir: l.dir}
	seen := l.versionsLocked()
	if l.computed && key == l.key && slices.Equal(seen, l.seen) {
		return
	}

	cols := l.fields()
	items := Filter(l.src.Items(), l.query, cols)
	if f, ok := Lookup(cols, l.sortBy); ok {
		items = Sort(items, f, l.dir)
	}
	l.cache, l.columns = items, cols
	l.key, l.seen, l.computed = key, seen, true
}

func (l *List[T]) versionsLocked() []uint64 {
	out := make([]uint64, 0, len(l.deps)+1)
	out = append(out, l.src.Version())
	for _, d := range l.deps {
		out = append(out, d.Version())
	}
	return out
}
