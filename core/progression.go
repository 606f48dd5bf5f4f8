package core

// Progression is an ordered, index-addressable sequence of IDs. It carries no
// internal locking: concurrency safety is delegated to whatever container
// guards it (typically a Pile or an executor).
type Progression struct {
	name  string
	order []ID
}

// NewProgression creates a Progression with an optional name and initial order.
func NewProgression(name string, ids ...ID) *Progression {
	p := &Progression{name: name}
	p.order = append(p.order, ids...)
	return p
}

// Name returns the optional identifier of the progression.
func (p *Progression) Name() string { return p.name }

// Len returns the number of IDs in the progression.
func (p *Progression) Len() int { return len(p.order) }

// IsEmpty reports whether the progression holds no IDs.
func (p *Progression) IsEmpty() bool { return len(p.order) == 0 }

// At returns the ID at index i. It panics if i is out of range, matching
// slice semantics.
func (p *Progression) At(i int) ID { return p.order[i] }

// IDs returns a copy of the current order.
func (p *Progression) IDs() []ID {
	out := make([]ID, len(p.order))
	copy(out, p.order)
	return out
}

// Append adds ids to the end of the progression, duplicates included.
func (p *Progression) Append(ids ...ID) {
	p.order = append(p.order, ids...)
}

// Include appends id only if absent. It reports whether the id was added.
func (p *Progression) Include(id ID) bool {
	if p.ContainsID(id) {
		return false
	}
	p.order = append(p.order, id)
	return true
}

// Insert places ids at the given index, shifting later entries right.
// It panics if index is out of range.
func (p *Progression) Insert(index int, ids ...ID) {
	p.order = append(p.order[:index], append(append([]ID{}, ids...), p.order[index:]...)...)
}

// Remove deletes the first occurrence of id. It returns ItemNotFoundError if
// the id is absent.
func (p *Progression) Remove(id ID) error {
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return nil
		}
	}
	return &ItemNotFoundError{ID: id}
}

// Exclude removes every occurrence of id. It is idempotent and reports
// whether anything was removed.
func (p *Progression) Exclude(id ID) bool {
	kept := p.order[:0]
	removed := false
	for _, existing := range p.order {
		if existing == id {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	p.order = kept
	return removed
}

// Pop removes and returns the last ID. It returns ErrEmpty when the
// progression holds nothing.
func (p *Progression) Pop() (ID, error) {
	if len(p.order) == 0 {
		return "", ErrEmpty
	}
	id := p.order[len(p.order)-1]
	p.order = p.order[:len(p.order)-1]
	return id, nil
}

// PopLeft removes and returns the first ID. It returns ErrEmpty when the
// progression holds nothing.
func (p *Progression) PopLeft() (ID, error) {
	if len(p.order) == 0 {
		return "", ErrEmpty
	}
	id := p.order[0]
	p.order = p.order[1:]
	return id, nil
}

// Slice returns a new Progression holding order[from:to]. The receiver is
// unchanged.
func (p *Progression) Slice(from, to int) *Progression {
	return NewProgression(p.name, p.order[from:to]...)
}

// Concat returns a new Progression holding the receiver's order followed by
// other's. Both inputs are unchanged.
func (p *Progression) Concat(other *Progression) *Progression {
	out := NewProgression(p.name, p.order...)
	out.order = append(out.order, other.order...)
	return out
}

// Difference returns a new Progression with every occurrence of other's IDs
// removed. Both inputs are unchanged.
func (p *Progression) Difference(other *Progression) *Progression {
	remove := make(map[ID]struct{}, len(other.order))
	for _, id := range other.order {
		remove[id] = struct{}{}
	}
	out := NewProgression(p.name)
	for _, id := range p.order {
		if _, drop := remove[id]; !drop {
			out.order = append(out.order, id)
		}
	}
	return out
}

// Contains reports membership for a reference, which may be an ID, a raw
// string or an identity-bearing Item (see ToID). Unconvertible references
// are simply not members.
func (p *Progression) Contains(ref any) bool {
	id, err := ToID(ref)
	if err != nil {
		return false
	}
	return p.ContainsID(id)
}

// ContainsID reports whether id is present.
func (p *Progression) ContainsID(id ID) bool {
	for _, existing := range p.order {
		if existing == id {
			return true
		}
	}
	return false
}

// Index returns the position of the first occurrence of id.
func (p *Progression) Index(id ID) (int, bool) {
	for i, existing := range p.order {
		if existing == id {
			return i, true
		}
	}
	return 0, false
}

// Clear removes all IDs.
func (p *Progression) Clear() { p.order = p.order[:0] }

// Clone returns an independent copy of the progression.
func (p *Progression) Clone() *Progression {
	return NewProgression(p.name, p.order...)
}
