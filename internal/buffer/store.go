// Package buffer implements the fixed-capacity message record pool
// (spec.md 4.1), the single-producer/single-consumer FIFO ring used to hand
// complete messages from the Rx path to the main loop (spec.md 4.2), and
// the partial-message list used while a multi-frame message is being
// reassembled (spec.md 4.3). None of these types allocate after
// construction: every record, ring slot, and partial-list slot is part of a
// fixed-size array sized at NewStore/NewFIFO/NewPartialList time.
package buffer

import "github.com/openlcb/canlink/internal/constants"

// Tier identifies one of the three payload size classes (spec.md 3, 4.1).
type Tier int

const (
	TierBasic Tier = iota
	TierDatagram
	TierSnip
	tierCount
)

func tierCapacity(t Tier) int {
	switch t {
	case TierBasic:
		return constants.TierBasicBytes
	case TierDatagram:
		return constants.TierDatagramBytes
	case TierSnip:
		return constants.TierSnipBytes
	default:
		return 0
	}
}

// tierFor returns the smallest tier whose capacity is >= n, or tierCount if
// n exceeds every tier.
func tierFor(n int) Tier {
	for t := TierBasic; t < tierCount; t++ {
		if n <= tierCapacity(t) {
			return t
		}
	}
	return tierCount
}

// Record is the unit of allocation in the Buffer Store (spec.md 3).
type Record struct {
	allocated   bool
	inProcess   bool
	refCount    int
	tier        Tier
	payload     []byte // len == capacity; Count tracks valid bytes
	count       int
	SourceAlias uint16
	SourceID    uint64
	DestAlias   uint16
	DestID      uint64
	MTI         uint16
	TimerTicks  uint16
}

// Allocated reports whether the record is currently in use.
func (r *Record) Allocated() bool { return r.allocated }

// InProcess reports whether a handler has claimed this record for
// processing (as opposed to merely being queued).
func (r *Record) InProcess() bool { return r.inProcess }

// SetInProcess marks or clears the in-process flag.
func (r *Record) SetInProcess(v bool) { r.inProcess = v }

// RefCount returns the current reference count.
func (r *Record) RefCount() int { return r.refCount }

// Capacity returns the fixed payload capacity for this record's tier.
func (r *Record) Capacity() int { return len(r.payload) }

// Count returns the number of valid payload bytes currently held.
func (r *Record) Count() int { return r.count }

// Payload returns the valid portion of the payload array.
func (r *Record) Payload() []byte { return r.payload[:r.count] }

// SetCount sets the number of valid payload bytes; panics if it exceeds
// capacity, mirroring a fixed-capacity array overflow in the source.
func (r *Record) SetCount(n int) {
	if n < 0 || n > len(r.payload) {
		panic("buffer: payload count out of range")
	}
	r.count = n
}

// AppendPayload appends b to the record's payload, returning false if it
// would overflow the tier's fixed capacity.
func (r *Record) AppendPayload(b ...byte) bool {
	if r.count+len(b) > len(r.payload) {
		return false
	}
	copy(r.payload[r.count:], b)
	r.count += len(b)
	return true
}

// reset clears addressing fields and payload count, used when a free
// record is handed back out by the store.
func (r *Record) reset() {
	r.inProcess = false
	r.count = 0
	r.SourceAlias = 0
	r.SourceID = 0
	r.DestAlias = 0
	r.DestID = 0
	r.MTI = 0
	r.TimerTicks = 0
}

// Store is the fixed-size, three-tier message record pool.
type Store struct {
	tiers        [tierCount][]Record
	allocated    [tierCount]int
	highWater    [tierCount]int
}

// NewStore creates a Store with depthPerTier records in each of the three
// size tiers.
func NewStore(depthPerTier int) *Store {
	s := &Store{}
	for t := TierBasic; t < tierCount; t++ {
		records := make([]Record, depthPerTier)
		for i := range records {
			records[i].tier = t
			records[i].payload = make([]byte, tierCapacity(t))
		}
		s.tiers[t] = records
	}
	return s
}

// Allocate promotes n bytes to the smallest tier that fits and returns the
// first free record in that tier. It returns (nil, false) if n exceeds the
// largest tier or the tier is exhausted; allocation failure is never fatal
// (spec.md 4.1) — the caller decides whether to drop the frame, drop the
// FIFO entry, or reject the datagram.
func (s *Store) Allocate(n int) (*Record, bool) {
	tier := tierFor(n)
	if tier >= tierCount {
		return nil, false
	}
	for i := range s.tiers[tier] {
		r := &s.tiers[tier][i]
		if !r.allocated {
			r.allocated = true
			r.refCount = 1
			r.reset()
			s.allocated[tier]++
			if s.allocated[tier] > s.highWater[tier] {
				s.highWater[tier] = s.allocated[tier]
			}
			return r, true
		}
	}
	return nil, false
}

// Retain increments a record's reference count, used when a message is
// routed to more than one handler or held in the partial list while other
// code also references it.
func (s *Store) Retain(r *Record) {
	r.refCount++
}

// Free decrements the reference count; at zero it clears the allocated
// flag and returns the record to its tier's free list.
func (s *Store) Free(r *Record) {
	if !r.allocated {
		return
	}
	r.refCount--
	if r.refCount <= 0 {
		r.allocated = false
		r.refCount = 0
		s.allocated[r.tier]--
	}
}

// AllocatedCount returns the number of currently allocated records in tier.
func (s *Store) AllocatedCount(tier Tier) int { return s.allocated[tier] }

// HighWaterMark returns the maximum number of simultaneously allocated
// records ever observed in tier.
func (s *Store) HighWaterMark(tier Tier) int { return s.highWater[tier] }
