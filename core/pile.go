package core

import (
	"fmt"
	"reflect"
	"sync"
)

// Pile is an identity-indexed, insertion-ordered collection of Items. It is
// safe for concurrent use: every mutation happens under an internal lock so
// racing callers can never break the correspondence between the item map and
// the insertion order. Optionally a Pile constrains the dynamic type of the
// items it accepts.
//
// Invariant: the order always contains exactly the key set of the item map,
// each ID once, in insertion order.
type Pile struct {
	mu       sync.RWMutex
	items    map[ID]Item
	order    *Progression
	itemType reflect.Type
	strict   bool
	codecs   *CodecRegistry
}

// PileOption customizes a Pile at construction time.
type PileOption func(*Pile)

// WithItemType constrains the Pile to items assignable to the dynamic type of
// prototype. Combine with WithStrictType to require the exact type.
func WithItemType(prototype Item) PileOption {
	return func(p *Pile) { p.itemType = reflect.TypeOf(prototype) }
}

// WithStrictType makes the item-type constraint exact instead of assignable.
func WithStrictType() PileOption {
	return func(p *Pile) { p.strict = true }
}

// WithCodecRegistry overrides the codec registry used by Dump and Load.
func WithCodecRegistry(r *CodecRegistry) PileOption {
	return func(p *Pile) { p.codecs = r }
}

// NewPile creates an empty Pile.
func NewPile(opts ...PileOption) *Pile {
	p := &Pile{
		items:  make(map[ID]Item),
		order:  NewProgression(""),
		codecs: DefaultCodecRegistry(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPileFrom creates a Pile seeded with an initial collection. Construction
// fails if any item violates the type constraint.
func NewPileFrom(items []Item, opts ...PileOption) (*Pile, error) {
	p := NewPile(opts...)
	if err := p.IncludeAll(items...); err != nil {
		return nil, err
	}
	return p, nil
}

// checkType validates item against the optional type constraint.
// Callers must hold no particular lock; the constraint is immutable.
func (p *Pile) checkType(item Item) error {
	if p.itemType == nil {
		return nil
	}
	got := reflect.TypeOf(item)
	if p.strict {
		if got != p.itemType {
			return &TypeConstraintError{Want: p.itemType.String(), Got: got.String()}
		}
		return nil
	}
	if !got.AssignableTo(p.itemType) {
		return &TypeConstraintError{Want: p.itemType.String(), Got: got.String()}
	}
	return nil
}

// Include adds item if absent and is a no-op when its identity is already
// present. It returns a TypeConstraintError when the item violates the type
// constraint. Include is atomic with respect to concurrent Include, Exclude
// and Pop calls.
func (p *Pile) Include(item Item) error {
	if err := p.checkType(item); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.includeLocked(item)
	return nil
}

// IncludeAll includes every item, stopping at the first constraint
// violation.
func (p *Pile) IncludeAll(items ...Item) error {
	for _, item := range items {
		if err := p.Include(item); err != nil {
			return err
		}
	}
	return nil
}

// TryInclude is the non-blocking variant of Include: when the lock is
// contended it returns immediately with added=false rather than waiting.
func (p *Pile) TryInclude(item Item) (added bool, err error) {
	if err := p.checkType(item); err != nil {
		return false, err
	}
	if !p.mu.TryLock() {
		return false, nil
	}
	defer p.mu.Unlock()
	return p.includeLocked(item), nil
}

func (p *Pile) includeLocked(item Item) bool {
	id := item.Identity()
	if _, exists := p.items[id]; exists {
		return false
	}
	p.items[id] = item
	p.order.Append(id)
	return true
}

// Exclude removes item if present. Removing an absent item is a no-op.
func (p *Pile) Exclude(item Item) {
	p.ExcludeID(item.Identity())
}

// ExcludeID removes the item with the given identity if present.
func (p *Pile) ExcludeID(id ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.items[id]; !exists {
		return
	}
	delete(p.items, id)
	p.order.Exclude(id)
}

// Pop removes and returns the item with the given identity. It returns
// ItemNotFoundError when the identity is absent. A popped item that is later
// re-included appends at the end of the order; its original position is not
// restored.
func (p *Pile) Pop(id ID) (Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, exists := p.items[id]
	if !exists {
		return nil, &ItemNotFoundError{ID: id}
	}
	delete(p.items, id)
	p.order.Exclude(id)
	return item, nil
}

// PopDefault behaves like Pop but returns def instead of an error when the
// identity is absent.
func (p *Pile) PopDefault(id ID, def Item) Item {
	item, err := p.Pop(id)
	if err != nil {
		return def
	}
	return item
}

// Get returns the item with the given identity.
func (p *Pile) Get(id ID) (Item, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	item, ok := p.items[id]
	return item, ok
}

// Contains reports membership for a reference, which may be an ID, a raw
// string or an identity-bearing Item.
func (p *Pile) Contains(ref any) bool {
	id, err := ToID(ref)
	if err != nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.items[id]
	return ok
}

// Len returns the number of items.
func (p *Pile) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// IDs returns the identities in insertion order.
func (p *Pile) IDs() []ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.order.IDs()
}

// Items returns a snapshot of the items in insertion order.
func (p *Pile) Items() []Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Item, 0, len(p.items))
	for _, id := range p.order.IDs() {
		out = append(out, p.items[id])
	}
	return out
}

// Dump serializes a snapshot of the items, in insertion order, using the
// codec registered for format. An unknown format is a configuration error.
func (p *Pile) Dump(format string) ([]byte, error) {
	codec, err := p.codecs.Get(format)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(p.Items())
}

// Load deserializes data with the codec registered for format and includes
// every decoded item. The decode hook converts each raw record into a
// concrete Item; it is the pluggable end of the persistence extension point.
func (p *Pile) Load(data []byte, format string, decode func(map[string]any) (Item, error)) error {
	codec, err := p.codecs.Get(format)
	if err != nil {
		return err
	}
	var records []map[string]any
	if err := codec.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode %s pile snapshot: %w", format, err)
	}
	for _, record := range records {
		item, err := decode(record)
		if err != nil {
			return err
		}
		if err := p.Include(item); err != nil {
			return err
		}
	}
	return nil
}
