package runtime

// FrozenHeap is an append-only arena of immutable values. Once published
// it is never written again, so any number of evaluations may read it
// concurrently without synchronization. Its lifetime is "as long as any
// holder exists": the Go runtime reclaims it when the last reference
// drops.
type FrozenHeap struct {
	objects []Value
}

// Len returns the number of objects migrated into the heap.
func (h *FrozenHeap) Len() int { return len(h.objects) }

// Freezer migrates a reachable value graph out of a mutable heap. Each
// originally mutable cell maps to at most one frozen counterpart, memoized
// by the original's identity, so shared substructure stays shared and
// cycles terminate: the frozen counterpart is entered into the memo before
// its elements are visited, then filled in.
//
// A Freezer stages its results privately. Publication is all-or-nothing:
// the caller publishes only after every root froze successfully, so a
// failure can never leave a partially frozen heap visible to anyone.
type Freezer struct {
	staged  []Value
	memo    map[Value]Value
	cells   map[*Cell]*Cell
	globals map[*ModuleGlobals]*ModuleGlobals
}

// NewFreezer creates an empty freezer.
func NewFreezer() *Freezer {
	return &Freezer{
		memo:    make(map[Value]Value),
		cells:   make(map[*Cell]*Cell),
		globals: make(map[*ModuleGlobals]*ModuleGlobals),
	}
}

// Publish seals the staged values into a frozen heap. Call only after
// every Freeze call succeeded.
func (f *Freezer) Publish() *FrozenHeap {
	return &FrozenHeap{objects: f.staged}
}

// Freeze returns the immutable counterpart of v. Freezing an already
// frozen value returns it unchanged. Only a host object that declares
// itself unfreezable can fail; on failure nothing is published.
func (f *Freezer) Freeze(v Value) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case NoneValue, BoolValue, IntValue, FloatValue, StringValue, BytesValue, *NativeFunctionValue:
		return v, nil
	case *ListValue:
		if val.frozen {
			return val, nil
		}
		if fv, ok := f.memo[v]; ok {
			return fv, nil
		}
		fl := &ListValue{frozen: true}
		f.memo[v] = fl
		f.staged = append(f.staged, fl)
		elems := make([]Value, len(val.elems))
		for i, el := range val.elems {
			fe, err := f.Freeze(el)
			if err != nil {
				return nil, err
			}
			elems[i] = fe
		}
		fl.elems = elems
		return fl, nil
	case TupleValue:
		ft, _, err := f.freezeTuple(val)
		if err != nil {
			return nil, err
		}
		return ft, nil
	case *DictValue:
		if val.frozen {
			return val, nil
		}
		if fv, ok := f.memo[v]; ok {
			return fv, nil
		}
		fd := &DictValue{frozen: true, index: make(map[uint32][]int, len(val.entries))}
		f.memo[v] = fd
		f.staged = append(f.staged, fd)
		for _, e := range val.entries {
			fk, err := f.Freeze(e.key)
			if err != nil {
				return nil, err
			}
			fval, err := f.Freeze(e.value)
			if err != nil {
				return nil, err
			}
			fd.index[e.hash] = append(fd.index[e.hash], len(fd.entries))
			fd.entries = append(fd.entries, dictEntry{key: fk, value: fval, hash: e.hash})
		}
		return fd, nil
	case *SetValue:
		if val.frozen {
			return val, nil
		}
		if fv, ok := f.memo[v]; ok {
			return fv, nil
		}
		fs := &SetValue{frozen: true, index: make(map[uint32][]int, len(val.entries))}
		f.memo[v] = fs
		f.staged = append(f.staged, fs)
		for _, e := range val.entries {
			fe, err := f.Freeze(e.value)
			if err != nil {
				return nil, err
			}
			fs.index[e.hash] = append(fs.index[e.hash], len(fs.entries))
			fs.entries = append(fs.entries, setEntry{value: fe, hash: e.hash})
		}
		return fs, nil
	case *FunctionValue:
		if val.frozen {
			return val, nil
		}
		if fv, ok := f.memo[v]; ok {
			return fv, nil
		}
		nf := &FunctionValue{Name: val.Name, Decl: val.Decl, Resolved: val.Resolved, frozen: true}
		f.memo[v] = nf
		f.staged = append(f.staged, nf)
		defaults := make([]Value, len(val.Defaults))
		for i, def := range val.Defaults {
			fd, err := f.Freeze(def)
			if err != nil {
				return nil, err
			}
			defaults[i] = fd
		}
		nf.Defaults = defaults
		free := make([]*Cell, len(val.Free))
		for i, c := range val.Free {
			fc, err := f.FreezeCell(c)
			if err != nil {
				return nil, err
			}
			free[i] = fc
		}
		nf.Free = free
		if val.Globals != nil {
			fg, err := f.freezeGlobals(val.Globals)
			if err != nil {
				return nil, err
			}
			nf.Globals = fg
		}
		return nf, nil
	case HostFreezable:
		if fv, ok := f.memo[v]; ok {
			return fv, nil
		}
		fv, err := val.FreezeWith(f)
		if err != nil {
			return nil, err
		}
		f.memo[v] = fv
		f.staged = append(f.staged, fv)
		return fv, nil
	case HostObject:
		// Host objects without freeze support are treated as immutable.
		return v, nil
	default:
		return nil, Errorf(ErrUnfreezable, "cannot freeze %s value", TypeName(v))
	}
}

// freezeTuple reports whether freezing replaced any element, so an
// all-frozen tuple is returned unchanged rather than copied.
func (f *Freezer) freezeTuple(t TupleValue) (TupleValue, bool, error) {
	changed := false
	elems := make([]Value, len(t.Elems))
	for i, el := range t.Elems {
		if nested, ok := el.(TupleValue); ok {
			fe, ch, err := f.freezeTuple(nested)
			if err != nil {
				return TupleValue{}, false, err
			}
			elems[i] = fe
			changed = changed || ch
			continue
		}
		fe, err := f.Freeze(el)
		if err != nil {
			return TupleValue{}, false, err
		}
		elems[i] = fe
		if !sameIdentity(el, fe) {
			changed = true
		}
	}
	if !changed {
		return t, false, nil
	}
	return TupleValue{Elems: elems}, true, nil
}

// sameIdentity compares only identities that are safe to compare: heap
// objects by pointer; everything else froze in place.
func sameIdentity(orig, frozen Value) bool {
	switch orig.(type) {
	case *ListValue, *DictValue, *SetValue, *FunctionValue:
		return orig == frozen
	case HostFreezable:
		return false
	default:
		return true
	}
}

// FreezeCell returns the frozen counterpart of a storage slot.
func (f *Freezer) FreezeCell(c *Cell) (*Cell, error) {
	if c == nil {
		return nil, nil
	}
	if c.frozen {
		return c, nil
	}
	if fc, ok := f.cells[c]; ok {
		return fc, nil
	}
	fc := &Cell{frozen: true}
	f.cells[c] = fc
	fv, err := f.Freeze(c.v)
	if err != nil {
		return nil, err
	}
	fc.v = fv
	return fc, nil
}

func (f *Freezer) freezeGlobals(g *ModuleGlobals) (*ModuleGlobals, error) {
	if fg, ok := f.globals[g]; ok {
		return fg, nil
	}
	fg := &ModuleGlobals{Names: g.Names, Cells: make([]*Cell, len(g.Cells))}
	f.globals[g] = fg
	for i, c := range g.Cells {
		fc, err := f.FreezeCell(c)
		if err != nil {
			return nil, err
		}
		fg.Cells[i] = fc
	}
	return fg, nil
}

// FrozenModule is the immutable artifact of a successful evaluation: the
// module's exported bindings together with the frozen heap that owns them.
// It is safe to share across concurrently running evaluations.
type FrozenModule struct {
	name     string
	names    []string
	bindings map[string]Value
	heap     *FrozenHeap
}

// FreezeModule migrates every bound name of a module namespace into a new
// frozen heap. A nil include exports every bound name; otherwise only
// names include accepts are exported (everything reachable from them is
// still migrated). If any value cannot be frozen, no heap is published and
// the namespace is left untouched.
func FreezeModule(name string, globals *ModuleGlobals, include func(string) bool) (*FrozenModule, error) {
	f := NewFreezer()
	names := make([]string, 0, len(globals.Names))
	bindings := make(map[string]Value, len(globals.Names))
	for i, n := range globals.Names {
		v := globals.Cells[i].Get()
		if v == nil || (include != nil && !include(n)) {
			continue
		}
		fv, err := f.Freeze(v)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		bindings[n] = fv
	}
	return &FrozenModule{
		name:     name,
		names:    names,
		bindings: bindings,
		heap:     f.Publish(),
	}, nil
}

// Name returns the module's name.
func (m *FrozenModule) Name() string { return m.name }

// Names returns the exported names in first-binding order.
func (m *FrozenModule) Names() []string { return m.names }

// Get returns the frozen value exported under name.
func (m *FrozenModule) Get(name string) (Value, bool) {
	v, ok := m.bindings[name]
	return v, ok
}

// Heap exposes the frozen heap backing the module.
func (m *FrozenModule) Heap() *FrozenHeap { return m.heap }
