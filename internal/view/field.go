package view

import (
	"strconv"

	"github.com/naveenspark/busdesk/pkg/domain"
)

// Kind selects how a field is compared when sorting.
type Kind int

const (
	Text      Kind = iota // collated string compare
	Number                // numeric compare on Num
	TimeOfDay             // HH:MM[:SS], unparseable values last
	Ref                   // resolved display name, collated
)

// Field is one column of an entity type.
type Field[T any] struct {
	Name string
	Kind Kind
	// Value is the text shown, searched and, for text kinds, compared.
	Value func(T) string
	// Num is the sort key of Number fields.
	Num func(T) float64
	// Searchable fields take part in Filter.
	Searchable bool
}

// TextField is a plain string column.
func TextField[T any](name string, value func(T) string, searchable bool) Field[T] {
	return Field[T]{Name: name, Kind: Text, Value: value, Searchable: searchable}
}

// NumberField is a numeric column. Negative values are the unset sentinel
// and display as "".
func NumberField[T any](name string, num func(T) float64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: Number,
		Num:  num,
		Value: func(t T) string {
			v := num(t)
			if v < 0 {
				return ""
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
	}
}

// TimeField is a time-of-day column.
func TimeField[T any](name string, value func(T) string) Field[T] {
	return Field[T]{Name: name, Kind: TimeOfDay, Value: value}
}

// RefField is a foreign key column shown, searched and sorted by the name of
// the referenced record in refs.
func RefField[T any, R domain.Entity](name string, id func(T) int64, refs []R) Field[T] {
	return Field[T]{
		Name:       name,
		Kind:       Ref,
		Value:      func(t T) string { return ResolveName(id(t), refs) },
		Searchable: true,
	}
}

// Lookup finds a field by name.
func Lookup[T any](fields []Field[T], name string) (Field[T], bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}
