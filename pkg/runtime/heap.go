package runtime

// Cell is one addressable storage slot inside a heap: the unit of
// aliasing. Variables resolve to cells, and closures capture cells, so
// mutation through one alias is visible through every alias. A nil stored
// value means the cell is declared but not yet assigned.
type Cell struct {
	v      Value
	frozen bool
}

// Get returns the stored value; nil means unbound.
func (c *Cell) Get() Value { return c.v }

// Set stores v. Cells that have been migrated to a frozen heap reject
// assignment forever.
func (c *Cell) Set(v Value) error {
	if c.frozen {
		return TypeErrorf("cannot assign through frozen binding")
	}
	c.v = v
	return nil
}

// Frozen reports whether the cell belongs to a frozen heap.
func (c *Cell) Frozen() bool { return c.frozen }

// ModuleGlobals is the cell table backing a module's top-level namespace.
// Names and Cells run in parallel, ordered by first binding.
type ModuleGlobals struct {
	Names []string
	Cells []*Cell
}

// Lookup returns the cell bound to name, or nil.
func (g *ModuleGlobals) Lookup(name string) *Cell {
	for i, n := range g.Names {
		if n == name {
			return g.Cells[i]
		}
	}
	return nil
}

// Heap is the arena owning every mutable container and cell created during
// one evaluation. It is single-owner: exactly one evaluation allocates
// from and mutates through it, so it needs no internal locking. It dies
// with its evaluation; only freezing moves values out of it.
type Heap struct {
	objects map[Value]struct{}
	cells   map[*Cell]struct{}
	pins    map[Value]int
}

// NewHeap creates an empty mutable heap.
func NewHeap() *Heap {
	return &Heap{
		objects: make(map[Value]struct{}),
		cells:   make(map[*Cell]struct{}),
		pins:    make(map[Value]int),
	}
}

// NewCell allocates a storage slot holding v (nil for an unbound slot).
func (h *Heap) NewCell(v Value) *Cell {
	c := &Cell{v: v}
	h.cells[c] = struct{}{}
	return c
}

// NewList allocates a mutable list taking ownership of elems.
func (h *Heap) NewList(elems []Value) *ListValue {
	l := &ListValue{elems: elems}
	h.objects[l] = struct{}{}
	return l
}

// NewDict allocates an empty mutable dict.
func (h *Heap) NewDict() *DictValue {
	d := &DictValue{index: make(map[uint32][]int)}
	h.objects[d] = struct{}{}
	return d
}

// NewSet allocates an empty mutable set.
func (h *Heap) NewSet() *SetValue {
	s := &SetValue{index: make(map[uint32][]int)}
	h.objects[s] = struct{}{}
	return s
}

// AddFunction registers a function value so the collector can trace and
// reclaim it with everything else the evaluation allocated.
func (h *Heap) AddFunction(f *FunctionValue) *FunctionValue {
	h.objects[f] = struct{}{}
	return f
}

// NewGlobals allocates the cell table for a module namespace.
func (h *Heap) NewGlobals(names []string) *ModuleGlobals {
	g := &ModuleGlobals{Names: names, Cells: make([]*Cell, len(names))}
	for i := range g.Cells {
		g.Cells[i] = h.NewCell(nil)
	}
	return g
}

// Pin marks v as reachable for the collector regardless of program state.
// Pins nest; each Pin needs a matching Unpin.
func (h *Heap) Pin(v Value) {
	h.pins[v]++
}

// Unpin releases one pin on v.
func (h *Heap) Unpin(v Value) {
	if n := h.pins[v]; n > 1 {
		h.pins[v] = n - 1
	} else {
		delete(h.pins, v)
	}
}

// Live returns the number of container/function objects currently owned by
// the heap.
func (h *Heap) Live() int { return len(h.objects) }

// LiveCells returns the number of cells currently owned by the heap.
func (h *Heap) LiveCells() int { return len(h.cells) }

// Owns reports whether v is an object allocated from this heap that has
// not been reclaimed.
func (h *Heap) Owns(v Value) bool {
	_, ok := h.objects[v]
	return ok
}
