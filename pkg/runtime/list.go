package runtime

// ListValue is a mutable, heap-owned sequence. Structural mutation (any
// change of length) is rejected while an iterator is live; replacing an
// element in place is always allowed.
type ListValue struct {
	elems     []Value
	itercount int
	frozen    bool
}

func (*ListValue) Kind() Kind { return KindList }

// Frozen reports whether the list lives in a frozen heap.
func (l *ListValue) Frozen() bool { return l.frozen }

func (l *ListValue) Len() int { return len(l.elems) }

// Elems exposes the backing storage for traversal (GC, freeze, operators).
// Callers must not mutate the returned slice.
func (l *ListValue) Elems() []Value { return l.elems }

// At returns the element at index i; negative indices count from the end.
func (l *ListValue) At(i int) (Value, error) {
	j, err := l.normIndex(i)
	if err != nil {
		return nil, err
	}
	return l.elems[j], nil
}

// SetAt replaces the element at index i in place. This is not a structural
// mutation, so it is permitted while the list is being iterated.
func (l *ListValue) SetAt(i int, v Value) error {
	if err := l.checkMutable("assign to element of", false); err != nil {
		return err
	}
	j, err := l.normIndex(i)
	if err != nil {
		return err
	}
	l.elems[j] = v
	return nil
}

func (l *ListValue) Append(v Value) error {
	if err := l.checkMutable("append to", true); err != nil {
		return err
	}
	l.elems = append(l.elems, v)
	return nil
}

func (l *ListValue) Extend(vs []Value) error {
	if err := l.checkMutable("extend", true); err != nil {
		return err
	}
	l.elems = append(l.elems, vs...)
	return nil
}

// Insert places v before index i; an index at or past the end appends.
func (l *ListValue) Insert(i int, v Value) error {
	if err := l.checkMutable("insert into", true); err != nil {
		return err
	}
	if i < 0 {
		i += len(l.elems)
		if i < 0 {
			i = 0
		}
	}
	if i >= len(l.elems) {
		l.elems = append(l.elems, v)
		return nil
	}
	l.elems = append(l.elems, nil)
	copy(l.elems[i+1:], l.elems[i:])
	l.elems[i] = v
	return nil
}

// Remove deletes the first element equal to v.
func (l *ListValue) Remove(v Value) error {
	if err := l.checkMutable("remove from", true); err != nil {
		return err
	}
	for i, el := range l.elems {
		eq, err := Equal(el, v)
		if err != nil {
			return err
		}
		if eq {
			l.elems = append(l.elems[:i], l.elems[i+1:]...)
			return nil
		}
	}
	return Errorf(ErrKey, "remove: value not in list")
}

// Pop removes and returns the element at index i.
func (l *ListValue) Pop(i int) (Value, error) {
	if err := l.checkMutable("pop from", true); err != nil {
		return nil, err
	}
	j, err := l.normIndex(i)
	if err != nil {
		return nil, err
	}
	v := l.elems[j]
	l.elems = append(l.elems[:j], l.elems[j+1:]...)
	return v, nil
}

func (l *ListValue) Clear() error {
	if err := l.checkMutable("clear", true); err != nil {
		return err
	}
	for i := range l.elems {
		l.elems[i] = nil
	}
	l.elems = l.elems[:0]
	return nil
}

// Iterate registers a live iterator over the list. Frozen lists need no
// registration: nothing can mutate them.
func (l *ListValue) Iterate() (Iterator, error) {
	if !l.frozen {
		l.itercount++
	}
	return &listIterator{list: l}, nil
}

func (l *ListValue) checkMutable(verb string, structural bool) error {
	if l.frozen {
		return TypeErrorf("cannot %s frozen list", verb)
	}
	if structural && l.itercount > 0 {
		return Errorf(ErrMutationDuringIteration, "cannot %s list during iteration", verb)
	}
	return nil
}

type listIterator struct {
	list *ListValue
	i    int
	done bool
}

func (it *listIterator) Next() (Value, bool) {
	if it.i < len(it.list.elems) {
		v := it.list.elems[it.i]
		it.i++
		return v, true
	}
	return nil, false
}

func (it *listIterator) Done() {
	if !it.done {
		it.done = true
		if !it.list.frozen {
			it.list.itercount--
		}
	}
}

// TupleValue is an immutable sequence. Its elements may still be mutable
// values; only the spine is fixed.
type TupleValue struct {
	Elems []Value
}

func (TupleValue) Kind() Kind { return KindTuple }

func (t TupleValue) At(i int) (Value, error) {
	j := i
	if j < 0 {
		j += len(t.Elems)
	}
	if j < 0 || j >= len(t.Elems) {
		return nil, Errorf(ErrIndex, "tuple index out of range: %d of %d", i, len(t.Elems))
	}
	return t.Elems[j], nil
}

// Iterate needs no guard: tuples cannot be structurally mutated.
func (t TupleValue) Iterate() (Iterator, error) {
	return &tupleIterator{elems: t.Elems}, nil
}

type tupleIterator struct {
	elems []Value
	i     int
}

func (it *tupleIterator) Next() (Value, bool) {
	if it.i < len(it.elems) {
		v := it.elems[it.i]
		it.i++
		return v, true
	}
	return nil, false
}

func (it *tupleIterator) Done() {}

func (l *ListValue) normIndex(i int) (int, error) {
	j := i
	if j < 0 {
		j += len(l.elems)
	}
	if j < 0 || j >= len(l.elems) {
		return 0, Errorf(ErrIndex, "list index out of range: %d of %d", i, len(l.elems))
	}
	return j, nil
}
