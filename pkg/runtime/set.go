package runtime

// SetValue is a mutable, insertion-ordered collection of unique hashable
// elements. Adding or removing an element is structural and rejected
// during iteration.
type SetValue struct {
	entries   []setEntry
	index     map[uint32][]int
	itercount int
	frozen    bool
}

type setEntry struct {
	value Value
	hash  uint32
}

func (*SetValue) Kind() Kind { return KindSet }

// Frozen reports whether the set lives in a frozen heap.
func (s *SetValue) Frozen() bool { return s.frozen }

func (s *SetValue) Len() int { return len(s.entries) }

// Has reports membership. The error reports an unhashable element.
func (s *SetValue) Has(v Value) (bool, error) {
	i, _, err := s.lookup(v)
	if err != nil {
		return false, err
	}
	return i >= 0, nil
}

// Add inserts v; inserting an element already present is a no-op.
func (s *SetValue) Add(v Value) error {
	i, h, err := s.lookup(v)
	if err != nil {
		return err
	}
	if i >= 0 {
		return nil
	}
	if err := s.checkStructural("insert into"); err != nil {
		return err
	}
	s.index[h] = append(s.index[h], len(s.entries))
	s.entries = append(s.entries, setEntry{value: v, hash: h})
	return nil
}

// Remove deletes v; removing an absent element is an error.
func (s *SetValue) Remove(v Value) error {
	i, _, err := s.lookup(v)
	if err != nil {
		return err
	}
	if i < 0 {
		return Errorf(ErrKey, "remove: value not in set")
	}
	if err := s.checkStructural("delete from"); err != nil {
		return err
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.reindex()
	return nil
}

// Elems returns the elements in insertion order.
func (s *SetValue) Elems() []Value {
	elems := make([]Value, 0, len(s.entries))
	for _, e := range s.entries {
		elems = append(elems, e.value)
	}
	return elems
}

// Iterate walks the elements in insertion order, registering a live
// iterator.
func (s *SetValue) Iterate() (Iterator, error) {
	if !s.frozen {
		s.itercount++
	}
	return &setIterator{set: s}, nil
}

func (s *SetValue) checkStructural(verb string) error {
	if s.frozen {
		return TypeErrorf("cannot %s frozen set", verb)
	}
	if s.itercount > 0 {
		return Errorf(ErrMutationDuringIteration, "cannot %s set during iteration", verb)
	}
	return nil
}

func (s *SetValue) lookup(v Value) (int, uint32, error) {
	h, err := Hash(v)
	if err != nil {
		return -1, 0, err
	}
	for _, i := range s.index[h] {
		eq, err := Equal(s.entries[i].value, v)
		if err != nil {
			return -1, 0, err
		}
		if eq {
			return i, h, nil
		}
	}
	return -1, h, nil
}

func (s *SetValue) reindex() {
	s.index = make(map[uint32][]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.hash] = append(s.index[e.hash], i)
	}
}

type setIterator struct {
	set  *SetValue
	i    int
	done bool
}

func (it *setIterator) Next() (Value, bool) {
	if it.i < len(it.set.entries) {
		v := it.set.entries[it.i].value
		it.i++
		return v, true
	}
	return nil, false
}

func (it *setIterator) Done() {
	if !it.done {
		it.done = true
		if !it.set.frozen {
			it.set.itercount--
		}
	}
}
