package core

import "time"

// Item is implemented by anything addressable by identity. Piles and
// Progressions track Items exclusively through this interface.
type Item interface {
	// Identity returns the stable ID of the item.
	Identity() ID
}

// Element is the minimal identity + creation-timestamp bearing unit. It is
// created once and never mutated; embed it in richer types (actions, records)
// to make them Pile-addressable. An Element is owned by its current holder
// but may be referenced by any number of Progressions at once.
type Element struct {
	ID        ID        `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewElement creates an Element with a fresh ID and a UTC creation timestamp.
func NewElement() Element {
	return Element{ID: NewID(), CreatedAt: time.Now().UTC()}
}

// Identity implements Item.
func (e Element) Identity() ID { return e.ID }

// Created returns the creation timestamp.
func (e Element) Created() time.Time { return e.CreatedAt }
