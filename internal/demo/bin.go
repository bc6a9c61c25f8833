// Package demo holds the pure rules of the demo assignment workflow: which
// units may be offered for a hospital, which of them sit nearby, who may own
// the session and the bin of units picked so far.
package demo

// Bin is the ordered set of device ids picked for a session. Dragging,
// dropping and double clicking a serial in the client all end up as Add.
type Bin struct {
	ids []string
	set map[string]struct{}
}

// NewBin returns a bin seeded with ids, skipping duplicates.
func NewBin(ids ...string) *Bin {
	b := &Bin{set: map[string]struct{}{}}
	for _, id := range ids {
		b.Add(id)
	}
	return b
}

// Add appends id unless it is already present or empty. It reports whether
// the bin changed.
func (b *Bin) Add(id string) bool {
	if id == "" {
		return false
	}
	if b.set == nil {
		b.set = map[string]struct{}{}
	}
	if _, ok := b.set[id]; ok {
		return false
	}
	b.set[id] = struct{}{}
	b.ids = append(b.ids, id)
	return true
}

// Remove drops id and reports whether it was present.
func (b *Bin) Remove(id string) bool {
	if _, ok := b.set[id]; !ok {
		return false
	}
	delete(b.set, id)
	for i, v := range b.ids {
		if v == id {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether id is in the bin.
func (b *Bin) Contains(id string) bool {
	_, ok := b.set[id]
	return ok
}

// Len is the number of ids in the bin.
func (b *Bin) Len() int { return len(b.ids) }

// IDs returns a copy of the ids in insertion order.
func (b *Bin) IDs() []string {
	out := make([]string, len(b.ids))
	copy(out, b.ids)
	return out
}
