package node

// Table is the fixed array of virtual-node records plus independent
// enumeration cursors keyed by a caller-chosen small integer, so the CAN
// dispatcher and the OpenLCB dispatcher can enumerate the same nodes
// without interfering with each other (spec.md 4.5).
type Table struct {
	nodes   []Node
	used    []bool
	cursors map[int]int // enumeration key -> next index to return
}

// New creates a Table that can hold depth virtual nodes.
func New(depth int) *Table {
	return &Table{
		nodes:   make([]Node, depth),
		used:    make([]bool, depth),
		cursors: make(map[int]int),
	}
}

// Allocate reserves a node slot for nodeID with the given parameters. It
// returns (nil, false) if the table is full.
func (t *Table) Allocate(nodeID uint64, params Params) (*Node, bool) {
	for i := range t.nodes {
		if !t.used[i] {
			t.used[i] = true
			t.nodes[i] = Node{
				ID:     nodeID,
				Seed:   nodeID,
				Params: params,
				State:  Init,
				Index:  i,
			}
			t.nodes[i].Flags.Allocated = true
			return &t.nodes[i], true
		}
	}
	return nil, false
}

// FindByAlias returns the node currently holding alias.
func (t *Table) FindByAlias(alias uint16) (*Node, bool) {
	for i := range t.nodes {
		if t.used[i] && t.nodes[i].Alias == alias {
			return &t.nodes[i], true
		}
	}
	return nil, false
}

// FindByNodeID returns the node with the given permanent Node ID.
func (t *Table) FindByNodeID(nodeID uint64) (*Node, bool) {
	for i := range t.nodes {
		if t.used[i] && t.nodes[i].ID == nodeID {
			return &t.nodes[i], true
		}
	}
	return nil, false
}

// GetFirst begins (or restarts) enumeration under key and returns the first
// allocated node.
func (t *Table) GetFirst(key int) (*Node, bool) {
	t.cursors[key] = 0
	return t.GetNext(key)
}

// GetNext returns the next allocated node under key's enumeration, or
// (nil, false) once enumeration has wrapped past the end.
func (t *Table) GetNext(key int) (*Node, bool) {
	idx := t.cursors[key]
	for idx < len(t.nodes) {
		if t.used[idx] {
			t.cursors[key] = idx + 1
			return &t.nodes[idx], true
		}
		idx++
	}
	t.cursors[key] = 0
	return nil, false
}

// Tick increments every allocated node's timer-ticks counter, called from
// the single on_100ms_tick entry point (spec.md 4.5, 6).
func (t *Table) Tick() {
	for i := range t.nodes {
		if t.used[i] {
			t.nodes[i].TimerTicks++
		}
	}
}

// ResetState forces every allocated node back to Init, used on bus-off
// recovery (spec.md 4.5).
func (t *Table) ResetState() {
	for i := range t.nodes {
		if t.used[i] {
			t.nodes[i].State = Init
			t.nodes[i].Alias = 0
			t.nodes[i].Flags.Permitted = false
			t.nodes[i].Flags.Initialized = false
			t.nodes[i].HasPendingLoginFrame = false
		}
	}
}

// Len returns the number of allocated nodes.
func (t *Table) Len() int {
	n := 0
	for _, u := range t.used {
		if u {
			n++
		}
	}
	return n
}

// ForEach calls fn for every allocated node, in table order.
func (t *Table) ForEach(fn func(*Node)) {
	for i := range t.nodes {
		if t.used[i] {
			fn(&t.nodes[i])
		}
	}
}
