package buffer

// PartialKey identifies an in-flight multi-frame assembly (spec.md 3).
type PartialKey struct {
	SourceAlias uint16
	DestAlias   uint16
	MTI         uint16
}

// PartialList is the unordered set of in-flight multi-frame assemblies
// (spec.md 4.3). Capacity equals the Buffer Store depth per tier; a
// multi-frame message occupies exactly one slot from Add until the final
// fragment moves it to the inbound FIFO.
type PartialList struct {
	entries []partialEntry
}

type partialEntry struct {
	used   bool
	key    PartialKey
	record *Record
}

// NewPartialList creates a list with room for depth simultaneous assemblies.
func NewPartialList(depth int) *PartialList {
	return &PartialList{entries: make([]partialEntry, depth)}
}

// Add registers a new in-flight assembly. It returns false if the list is
// full (spec.md 7: transient resource exhaustion — caller drops the frame).
func (p *PartialList) Add(key PartialKey, r *Record) bool {
	for i := range p.entries {
		if !p.entries[i].used {
			p.entries[i] = partialEntry{used: true, key: key, record: r}
			return true
		}
	}
	return false
}

// FindFirst returns the record matching key, if any.
func (p *PartialList) FindFirst(key PartialKey) (*Record, bool) {
	for i := range p.entries {
		if p.entries[i].used && p.entries[i].key == key {
			return p.entries[i].record, true
		}
	}
	return nil, false
}

// Remove deletes the entry holding r, if present. Returns true if removed.
func (p *PartialList) Remove(r *Record) bool {
	for i := range p.entries {
		if p.entries[i].used && p.entries[i].record == r {
			p.entries[i] = partialEntry{}
			return true
		}
	}
	return false
}

// Empty reports whether no assemblies are in flight.
func (p *PartialList) Empty() bool {
	for i := range p.entries {
		if p.entries[i].used {
			return false
		}
	}
	return true
}

// Len returns the number of in-flight assemblies.
func (p *PartialList) Len() int {
	n := 0
	for i := range p.entries {
		if p.entries[i].used {
			n++
		}
	}
	return n
}

// At returns the record at index i in iteration order, for callers that
// enumerate the whole list (e.g. a timeout sweep). ok is false past the end
// of the backing array; used records may be interspersed with unused ones.
func (p *PartialList) At(i int) (key PartialKey, r *Record, used bool, ok bool) {
	if i < 0 || i >= len(p.entries) {
		return PartialKey{}, nil, false, false
	}
	e := p.entries[i]
	return e.key, e.record, e.used, true
}
