package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate is returned by Create when the collection already holds an
	// entry with the same key.
	ErrDuplicate = errors.New("an entry with this name already exists")
	// ErrNotFound is returned by Update and Delete when the id is not in the
	// collection.
	ErrNotFound = errors.New("entry not found")
)

// Kind separates failures that never reached the network from those that did.
type Kind int

const (
	// KindPrecondition means the operation was rejected locally; nothing was sent.
	KindPrecondition Kind = iota + 1
	// KindNetwork means a request was attempted and failed.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindNetwork:
		return "network"
	}
	return "unknown"
}

// OpError is the error returned by every cache operation.
type OpError struct {
	Op   string // e.g. "city.create"
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// IsPrecondition reports whether err was rejected before any request was sent.
func IsPrecondition(err error) bool {
	var opErr *OpError
	return errors.As(err, &opErr) && opErr.Kind == KindPrecondition
}

// IsNetwork reports whether err comes from an attempted request.
func IsNetwork(err error) bool {
	var opErr *OpError
	return errors.As(err, &opErr) && opErr.Kind == KindNetwork
}
