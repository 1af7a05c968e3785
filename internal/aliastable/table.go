// Package aliastable implements the bidirectional alias<->Node ID mapping
// table with duplicate-alias flagging (spec.md 4.4).
package aliastable

import (
	"github.com/openlcb/canlink/internal/constants"
)

type entry struct {
	used        bool
	alias       uint16
	nodeID      uint64
	isDuplicate bool
	isPermitted bool
}

// Table is the fixed-size alias mapping table. An empty slot has alias == 0
// and node ID == 0 (spec.md 3 invariant).
type Table struct {
	entries []entry
}

// New creates a Table with room for depth simultaneous mappings.
func New(depth int) *Table {
	return &Table{entries: make([]entry, depth)}
}

func validAlias(alias uint16) bool {
	return alias >= constants.AliasMin && alias <= constants.AliasMax
}

func validNodeID(nodeID uint64) bool {
	return nodeID >= constants.NodeIDMin && nodeID <= constants.NodeIDMax
}

// Register inserts a new {alias, nodeID} mapping, or updates the alias of
// an existing mapping for nodeID (first-fit). It rejects out-of-range
// aliases or Node IDs.
func (t *Table) Register(alias uint16, nodeID uint64) bool {
	if !validAlias(alias) || !validNodeID(nodeID) {
		return false
	}
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].nodeID == nodeID {
			t.entries[i].alias = alias
			return true
		}
	}
	for i := range t.entries {
		if !t.entries[i].used {
			t.entries[i] = entry{used: true, alias: alias, nodeID: nodeID}
			return true
		}
	}
	return false
}

// UnregisterByAlias removes the mapping holding alias, if any.
func (t *Table) UnregisterByAlias(alias uint16) bool {
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].alias == alias {
			t.entries[i] = entry{}
			return true
		}
	}
	return false
}

// FindByAlias returns the Node ID mapped to alias.
func (t *Table) FindByAlias(alias uint16) (nodeID uint64, permitted bool, ok bool) {
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].alias == alias {
			return t.entries[i].nodeID, t.entries[i].isPermitted, true
		}
	}
	return 0, false, false
}

// FindByNodeID returns the alias mapped to nodeID.
func (t *Table) FindByNodeID(nodeID uint64) (alias uint16, permitted bool, ok bool) {
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].nodeID == nodeID {
			return t.entries[i].alias, t.entries[i].isPermitted, true
		}
	}
	return 0, false, false
}

// SetPermitted marks the mapping for nodeID as permitted (spec.md 3: exactly
// one mapping entry satisfies alias==N.alias && node_id==N.id && permitted
// for every logged-in node N).
func (t *Table) SetPermitted(nodeID uint64, permitted bool) bool {
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].nodeID == nodeID {
			t.entries[i].isPermitted = permitted
			return true
		}
	}
	return false
}

// SetDuplicate flags (or clears) the duplicate bit on the mapping holding
// alias, used by the CAN Rx state machine when a frame bearing our own
// alias is observed on the bus (spec.md 4.4).
func (t *Table) SetDuplicate(alias uint16, dup bool) bool {
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].alias == alias {
			t.entries[i].isDuplicate = dup
			return true
		}
	}
	return false
}

// ServiceDuplicates unregisters every mapping currently flagged duplicate
// and returns their Node IDs, for the main dispatcher's duplicate-alias
// service step (spec.md 4.9 step 1, "unregister all such mappings").
func (t *Table) ServiceDuplicates() []uint64 {
	var affected []uint64
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].isDuplicate {
			affected = append(affected, t.entries[i].nodeID)
			t.entries[i] = entry{}
		}
	}
	return affected
}

// Flush removes every mapping.
func (t *Table) Flush() {
	for i := range t.entries {
		t.entries[i] = entry{}
	}
}

// Len returns the number of active mappings.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].used {
			n++
		}
	}
	return n
}
