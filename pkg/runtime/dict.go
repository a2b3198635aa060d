package runtime

// DictValue is a mutable, insertion-ordered mapping with unique hashable
// keys. Inserting or deleting a key is structural and rejected during
// iteration; overwriting the value of an existing key is not.
type DictValue struct {
	entries   []dictEntry
	index     map[uint32][]int
	itercount int
	frozen    bool
}

type dictEntry struct {
	key   Value
	value Value
	hash  uint32
}

func (*DictValue) Kind() Kind { return KindDict }

// Frozen reports whether the dict lives in a frozen heap.
func (d *DictValue) Frozen() bool { return d.frozen }

func (d *DictValue) Len() int { return len(d.entries) }

// Get looks up the value bound to key; found is false when absent. The
// error reports an unhashable key.
func (d *DictValue) Get(key Value) (v Value, found bool, err error) {
	i, h, err := d.lookup(key)
	if err != nil {
		return nil, false, err
	}
	_ = h
	if i < 0 {
		return nil, false, nil
	}
	return d.entries[i].value, true, nil
}

// SetKey binds key to value, appending a new entry when the key is absent.
func (d *DictValue) SetKey(key, value Value) error {
	i, h, err := d.lookup(key)
	if err != nil {
		return err
	}
	if i >= 0 {
		// Value replacement only; permitted during iteration.
		if d.frozen {
			return TypeErrorf("cannot insert into frozen dict")
		}
		d.entries[i].value = value
		return nil
	}
	if err := d.checkStructural("insert into"); err != nil {
		return err
	}
	d.index[h] = append(d.index[h], len(d.entries))
	d.entries = append(d.entries, dictEntry{key: key, value: value, hash: h})
	return nil
}

// Delete removes key and returns its former value; found is false when the
// key was absent.
func (d *DictValue) Delete(key Value) (v Value, found bool, err error) {
	i, _, err := d.lookup(key)
	if err != nil {
		return nil, false, err
	}
	if i < 0 {
		return nil, false, nil
	}
	if err := d.checkStructural("delete from"); err != nil {
		return nil, false, err
	}
	v = d.entries[i].value
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	d.reindex()
	return v, true, nil
}

func (d *DictValue) Clear() error {
	if err := d.checkStructural("clear"); err != nil {
		return err
	}
	for i := range d.entries {
		d.entries[i] = dictEntry{}
	}
	d.entries = d.entries[:0]
	d.index = make(map[uint32][]int)
	return nil
}

// Keys returns the keys in insertion order.
func (d *DictValue) Keys() []Value {
	keys := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Values returns the values in insertion order.
func (d *DictValue) Values() []Value {
	values := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		values = append(values, e.value)
	}
	return values
}

// Items calls visit for each entry in insertion order.
func (d *DictValue) Items(visit func(key, value Value)) {
	for _, e := range d.entries {
		visit(e.key, e.value)
	}
}

// Iterate walks the keys in insertion order, registering a live iterator.
func (d *DictValue) Iterate() (Iterator, error) {
	if !d.frozen {
		d.itercount++
	}
	return &dictIterator{dict: d}, nil
}

func (d *DictValue) checkStructural(verb string) error {
	if d.frozen {
		return TypeErrorf("cannot %s frozen dict", verb)
	}
	if d.itercount > 0 {
		return Errorf(ErrMutationDuringIteration, "cannot %s dict during iteration", verb)
	}
	return nil
}

// lookup returns the entry index of key (or -1) and the key's hash.
func (d *DictValue) lookup(key Value) (int, uint32, error) {
	h, err := Hash(key)
	if err != nil {
		return -1, 0, err
	}
	for _, i := range d.index[h] {
		eq, err := Equal(d.entries[i].key, key)
		if err != nil {
			return -1, 0, err
		}
		if eq {
			return i, h, nil
		}
	}
	return -1, h, nil
}

func (d *DictValue) reindex() {
	d.index = make(map[uint32][]int, len(d.entries))
	for i, e := range d.entries {
		d.index[e.hash] = append(d.index[e.hash], i)
	}
}

type dictIterator struct {
	dict *DictValue
	i    int
	done bool
}

func (it *dictIterator) Next() (Value, bool) {
	if it.i < len(it.dict.entries) {
		k := it.dict.entries[it.i].key
		it.i++
		return k, true
	}
	return nil, false
}

func (it *dictIterator) Done() {
	if !it.done {
		it.done = true
		if !it.dict.frozen {
			it.dict.itercount--
		}
	}
}
