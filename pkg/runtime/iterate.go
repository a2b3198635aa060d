package runtime

// Iterator walks the elements of a container. Done must be called exactly
// once when iteration ends, on every path including break and error
// unwinds: it releases the container's live-iterator registration that
// Iterate created.
type Iterator interface {
	Next() (Value, bool)
	Done()
}

// Iterate returns an iterator over v, or a type error when v is not
// iterable. Dicts iterate their keys.
func Iterate(v Value) (Iterator, error) {
	switch val := v.(type) {
	case *ListValue:
		return val.Iterate()
	case TupleValue:
		return val.Iterate()
	case *DictValue:
		return val.Iterate()
	case *SetValue:
		return val.Iterate()
	case HostIterable:
		return val.Iterate()
	default:
		return nil, TypeErrorf("%s value is not iterable", TypeName(v))
	}
}

// Elements drains an iterable into a slice, releasing the iterator before
// returning.
func Elements(v Value) ([]Value, error) {
	it, err := Iterate(v)
	if err != nil {
		return nil, err
	}
	defer it.Done()
	var out []Value
	for {
		el, ok := it.Next()
		if !ok {
			return out, nil
		}
		out = append(out, el)
	}
}
