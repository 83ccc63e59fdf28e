package diag

// FaultSet is the lazily evaluated set of active fault codes for one mask.
// It is restartable: every call to Iterator starts a fresh pass over the
// table, and Count and List use the same predicate as the iterator.
type FaultSet struct {
	table *Table
	mask  Mask
}

// Iterator returns a new iterator positioned before the first active entry.
func (s FaultSet) Iterator() *FaultIterator {
	return &FaultIterator{set: s, pos: -1}
}

// Count returns the number of active entries.
func (s FaultSet) Count() int {
	n := 0
	for it := s.Iterator(); it.Next(); {
		n++
	}
	return n
}

// List materializes the active entries in table definition order.
func (s FaultSet) List() []FaultCode {
	var out []FaultCode
	for it := s.Iterator(); it.Next(); {
		out = append(out, it.Entry())
	}
	return out
}

// Empty reports whether no table entry is active.
func (s FaultSet) Empty() bool {
	return !s.Iterator().Next()
}

// HasDTC reports whether any active entry carries dtc.
func (s FaultSet) HasDTC(dtc string) bool {
	return s.anyActive(s.table.byDTC[dtc])
}

// EntriesForDTC returns the active entries carrying dtc.
func (s FaultSet) EntriesForDTC(dtc string) []FaultCode {
	return s.activeOf(s.table.byDTC[dtc])
}

// HasCEL reports whether any active entry matches a main ("8") or main-sub
// ("8-1") check-engine-light code.
func (s FaultSet) HasCEL(cel string) bool {
	return s.anyActive(s.table.byCEL[cel])
}

func (s FaultSet) anyActive(idx []int) bool {
	for _, i := range idx {
		if s.mask.Has(s.table.entries[i].Flag) {
			return true
		}
	}
	return false
}

func (s FaultSet) activeOf(idx []int) []FaultCode {
	var out []FaultCode
	for _, i := range idx {
		if e := s.table.entries[i]; s.mask.Has(e.Flag) {
			out = append(out, e)
		}
	}
	return out
}

// FaultIterator walks the active entries of a FaultSet.
type FaultIterator struct {
	set FaultSet
	pos int
}

// Next advances to the next active entry.
func (it *FaultIterator) Next() bool {
	entries := it.set.table.entries
	for it.pos++; it.pos < len(entries); it.pos++ {
		if it.set.mask.Has(entries[it.pos].Flag) {
			return true
		}
	}
	return false
}

// Entry returns the current entry. It is only valid after Next returned true.
func (it *FaultIterator) Entry() FaultCode {
	return it.set.table.entries[it.pos]
}
