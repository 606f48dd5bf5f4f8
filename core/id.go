package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is an opaque identity token naming an Element. IDs are generated from a
// cryptographic-strength source and are structurally validatable without a
// registry lookup. An ID is never confusable with an arbitrary string at API
// boundaries: use ParseID or ToID to convert explicitly.
type ID string

// NewID generates a fresh random ID.
func NewID() ID { return ID(uuid.NewString()) }

// ParseID validates that s has the structural shape of an ID and returns it
// in canonical form.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	if u.Version() != 4 {
		return "", fmt.Errorf("invalid id %q: expected a version 4 UUID, got version %d", s, u.Version())
	}
	return ID(u.String()), nil
}

// String returns the canonical string form of the ID.
func (id ID) String() string { return string(id) }

// Valid reports whether the ID is structurally well formed.
func (id ID) Valid() bool {
	_, err := ParseID(string(id))
	return err == nil
}

// ToID derives an ID from a reference value. It accepts an ID, an
// identity-bearing Item, or a raw string (validated via ParseID). Any other
// type is an error. This is the single conversion point between untyped
// references and the ID newtype.
func ToID(ref any) (ID, error) {
	switch v := ref.(type) {
	case ID:
		return v, nil
	case Item:
		return v.Identity(), nil
	case string:
		return ParseID(v)
	case fmt.Stringer:
		return ParseID(v.String())
	default:
		return "", fmt.Errorf("cannot derive an id from %T", ref)
	}
}
