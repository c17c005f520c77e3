package label

import "fmt"

// Entry is one (key, value) pair in a Module, in insertion order.
type Entry struct {
	Key   string
	Value Value
}

// Module is an order-preserving multi-mapping from identifier to Value.
// Duplicate keys are retained in insertion order; Get returns the first
// match, GetAll returns every match. It is implemented as a slice of
// pairs plus an auxiliary hash index of key to positions, per the design
// note favoring a single concrete ordered-multimap type over inheritance.
type Module struct {
	entries []Entry
	index   map[string][]int
}

// NewModule returns an empty Module ready for use.
func NewModule() *Module {
	return &Module{index: make(map[string][]int)}
}

func (m *Module) rebuildIndex() {
	m.index = make(map[string][]int, len(m.entries))
	for i, e := range m.entries {
		m.index[e.Key] = append(m.index[e.Key], i)
	}
}

// Len returns the number of entries.
func (m *Module) Len() int { return len(m.entries) }

// At returns the (key, value) pair at insertion position i.
func (m *Module) At(i int) Entry { return m.entries[i] }

// Slice returns a copy of the entries in [i, j).
func (m *Module) Slice(i, j int) []Entry {
	out := make([]Entry, j-i)
	copy(out, m.entries[i:j])
	return out
}

// Entries returns a copy of every entry in insertion order.
func (m *Module) Entries() []Entry {
	return m.Slice(0, len(m.entries))
}

// Get returns the first value stored under key.
func (m *Module) Get(key string) (Value, bool) {
	idxs := m.index[key]
	if len(idxs) == 0 {
		return nil, false
	}
	return m.entries[idxs[0]].Value, true
}

// GetAll returns every value stored under key, in insertion order.
func (m *Module) GetAll(key string) []Value {
	idxs := m.index[key]
	out := make([]Value, len(idxs))
	for i, idx := range idxs {
		out[i] = m.entries[idx].Value
	}
	return out
}

// Has reports whether key has at least one value.
func (m *Module) Has(key string) bool { return len(m.index[key]) > 0 }

// Append adds (key, value) as the new last entry.
func (m *Module) Append(key string, v Value) {
	m.index[key] = append(m.index[key], len(m.entries))
	m.entries = append(m.entries, Entry{Key: key, Value: v})
}

// InsertBefore inserts (newKey, v) immediately before the first entry
// whose key is beforeKey. It returns an error if beforeKey is not found.
func (m *Module) InsertBefore(beforeKey, newKey string, v Value) error {
	idxs := m.index[beforeKey]
	if len(idxs) == 0 {
		return fmt.Errorf("label: key %q not found", beforeKey)
	}
	m.insertAt(idxs[0], newKey, v)
	return nil
}

// InsertAfter inserts (newKey, v) immediately after the first entry whose
// key is afterKey. It returns an error if afterKey is not found.
func (m *Module) InsertAfter(afterKey, newKey string, v Value) error {
	idxs := m.index[afterKey]
	if len(idxs) == 0 {
		return fmt.Errorf("label: key %q not found", afterKey)
	}
	m.insertAt(idxs[0]+1, newKey, v)
	return nil
}

func (m *Module) insertAt(pos int, key string, v Value) {
	m.entries = append(m.entries, Entry{})
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = Entry{Key: key, Value: v}
	m.rebuildIndex()
}

// Replace replaces the Value of every entry matching key and returns how
// many entries were replaced.
func (m *Module) Replace(key string, v Value) int {
	idxs := m.index[key]
	for _, idx := range idxs {
		m.entries[idx].Value = v
	}
	return len(idxs)
}

// Delete removes the first entry matching key and reports whether
// anything was removed.
func (m *Module) Delete(key string) bool {
	idxs := m.index[key]
	if len(idxs) == 0 {
		return false
	}
	m.deleteAt(idxs[0])
	return true
}

// DeleteAll removes every entry matching key and returns how many were
// removed.
func (m *Module) DeleteAll(key string) int {
	idxs := append([]int(nil), m.index[key]...)
	for i := len(idxs) - 1; i >= 0; i-- {
		m.deleteAt(idxs[i])
	}
	return len(idxs)
}

func (m *Module) deleteAt(pos int) {
	m.entries = append(m.entries[:pos], m.entries[pos+1:]...)
	m.rebuildIndex()
}

// Equal reports whether m and other hold the same entries in the same
// order, including duplicate keys (structural, order-sensitive equality).
func (m *Module) Equal(other *Module) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.entries) != len(other.entries) {
		return false
	}
	for i, e := range m.entries {
		o := other.entries[i]
		if e.Key != o.Key || !valuesEqual(e.Value, o.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *Block:
		bv, ok := b.(*Block)
		return ok && av.BlockType == bv.BlockType && av.Name == bv.Name && av.Module.Equal(&bv.Module)
	case Sequence:
		bv, ok := b.(Sequence)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Set:
		bv, ok := b.(Set)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Quantity:
		bv, ok := b.(Quantity)
		return ok && av.Units == bv.Units && valuesEqual(av.Scalar, bv.Scalar)
	default:
		return a == b
	}
}

// BlockKind tags whether an aggregation Block is an OBJECT or a GROUP.
type BlockKind int

const (
	BlockObject BlockKind = iota
	BlockGroup
)

func (k BlockKind) String() string {
	if k == BlockGroup {
		return "GROUP"
	}
	return "OBJECT"
}

// Block is an aggregation block: a Module (its children, in source order)
// tagged with its kind and the identifier used on its begin/end
// statement. A Block is itself a Value so it can be nested inside a
// parent Module or Block.
type Block struct {
	Module
	BlockType BlockKind
	Name      string
}

// NewBlock returns an empty Block of the given kind and name.
func NewBlock(kind BlockKind, name string) *Block {
	return &Block{Module: *NewModule(), BlockType: kind, Name: name}
}

func (*Block) Kind() Kind { return KindBlock }
