package runtime

// The collector is a plain mark-and-sweep tracer. It must only run between
// evaluation steps, never while an expression is mid-flight, so it can
// assume every live value is reachable from the supplied roots. Tracing
// (rather than reference counting) is what makes cyclic mutable
// structures reclaimable.

// RootSet is the starting points for a collection: the cells of every
// frame on the call stack, the module namespace under construction, and
// any extra values the embedding caller holds. Pinned values are added
// implicitly.
type RootSet struct {
	Values []Value
	Cells  []*Cell
}

// Collect reclaims every object and cell not reachable from roots,
// returning the number of objects reclaimed. Reclaimed containers have
// their storage cleared so they cannot keep anything else alive through
// stale Go references.
func (h *Heap) Collect(roots RootSet) int {
	marked := make(map[Value]bool, len(h.objects))
	markedCells := make(map[*Cell]bool, len(h.cells))

	var markValue func(v Value)
	markCell := func(c *Cell) {
		if c == nil || markedCells[c] {
			return
		}
		markedCells[c] = true
		if v := c.Get(); v != nil {
			markValue(v)
		}
	}
	markValue = func(v Value) {
		switch val := v.(type) {
		case nil:
		case *ListValue:
			if marked[v] {
				return
			}
			marked[v] = true
			for _, el := range val.elems {
				markValue(el)
			}
		case TupleValue:
			for _, el := range val.Elems {
				markValue(el)
			}
		case *DictValue:
			if marked[v] {
				return
			}
			marked[v] = true
			for _, e := range val.entries {
				markValue(e.key)
				markValue(e.value)
			}
		case *SetValue:
			if marked[v] {
				return
			}
			marked[v] = true
			for _, e := range val.entries {
				markValue(e.value)
			}
		case *FunctionValue:
			if marked[v] {
				return
			}
			marked[v] = true
			for _, def := range val.Defaults {
				markValue(def)
			}
			for _, c := range val.Free {
				markCell(c)
			}
			if val.Globals != nil {
				for _, c := range val.Globals.Cells {
					markCell(c)
				}
			}
		case HostTraceable:
			val.Trace(markValue)
		}
	}

	for _, v := range roots.Values {
		markValue(v)
	}
	for _, c := range roots.Cells {
		markCell(c)
	}
	for v := range h.pins {
		markValue(v)
	}

	reclaimed := 0
	for obj := range h.objects {
		if marked[obj] {
			continue
		}
		reclaim(obj)
		delete(h.objects, obj)
		reclaimed++
	}
	for c := range h.cells {
		if !markedCells[c] {
			c.v = nil
			delete(h.cells, c)
		}
	}
	return reclaimed
}

// reclaim severs an unreachable object from everything it referenced.
func reclaim(v Value) {
	switch val := v.(type) {
	case *ListValue:
		for i := range val.elems {
			val.elems[i] = nil
		}
		val.elems = nil
	case *DictValue:
		for i := range val.entries {
			val.entries[i] = dictEntry{}
		}
		val.entries = nil
		val.index = nil
	case *SetValue:
		for i := range val.entries {
			val.entries[i] = setEntry{}
		}
		val.entries = nil
		val.index = nil
	case *FunctionValue:
		val.Defaults = nil
		val.Free = nil
		val.Globals = nil
	}
}
