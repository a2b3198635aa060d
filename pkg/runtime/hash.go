package runtime

import (
	"math"
	"math/big"
)

// Hash returns the 32-bit hash of a hashable value. Equal values hash
// equal, including across int and float (1 and 1.0 share a hash). Mutable
// containers are never hashable, and NaN is rejected so it can never
// become a dict or set key.
func Hash(v Value) (uint32, error) {
	switch val := v.(type) {
	case NoneValue:
		return 0x2f8f13da, nil
	case BoolValue:
		if val.Val {
			return 0x9bf93e24, nil
		}
		return 0x1cafe5b1, nil
	case IntValue:
		return hashBigInt(val.Val), nil
	case FloatValue:
		if math.IsNaN(val.Val) {
			return 0, TypeErrorf("floating-point NaN is not hashable")
		}
		if isFiniteIntegral(val.Val) {
			i, _ := big.NewFloat(val.Val).Int(nil)
			return hashBigInt(i), nil
		}
		return hashString(string(floatBytes(val.Val))), nil
	case StringValue:
		return hashString(val.Val), nil
	case BytesValue:
		return hashString(string(val.Val)), nil
	case TupleValue:
		var h uint32 = 0x345678
		for _, el := range val.Elems {
			eh, err := Hash(el)
			if err != nil {
				return 0, err
			}
			h = h*1000003 ^ eh
		}
		return h, nil
	case *FunctionValue:
		return hashString(val.Name) ^ 0x5e1f, nil
	case *NativeFunctionValue:
		return hashString(val.Sig.Name) ^ 0x6e2d, nil
	case HostHashable:
		return val.Hash()
	default:
		return 0, TypeErrorf("unhashable type: %s", TypeName(v))
	}
}

func isFiniteIntegral(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

func floatBytes(f float64) []byte {
	bits := math.Float64bits(f)
	var b [8]byte
	for i := range b {
		b[i] = byte(bits >> (8 * i))
	}
	return b[:]
}

func hashBigInt(i *big.Int) uint32 {
	h := hashString(string(i.Bytes()))
	if i.Sign() < 0 {
		h = ^h
	}
	return h
}

// hashString is 32-bit FNV-1a.
func hashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
