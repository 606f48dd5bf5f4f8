package core

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned by Pop/PopLeft on an empty Progression.
var ErrEmpty = errors.New("progression is empty")

// ItemNotFoundError reports an identity that is absent from a collection.
type ItemNotFoundError struct {
	ID ID // Identity that was looked up
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.ID)
}

// TypeConstraintError reports an item rejected by a type-constrained Pile.
type TypeConstraintError struct {
	Want string // Constrained item type
	Got  string // Dynamic type of the rejected item
}

func (e *TypeConstraintError) Error() string {
	return fmt.Sprintf("item type %s does not satisfy pile constraint %s", e.Got, e.Want)
}

// UnknownFormatError reports a dump/load format with no registered codec.
// It is a configuration error, never a silent no-op.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("no codec registered for format %q", e.Format)
}
