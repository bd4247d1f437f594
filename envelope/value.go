package envelope

import "bytes"

// Value is anything that can sit as an Envelope subject, predicate, or
// object. Valid dynamic types: nil, Unit, string, []byte, int64, ARID.
type Value interface{}

func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Unit:
		_, ok := b.(Unit)
		return ok
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case ARID:
		bv, ok := b.(ARID)
		return ok && av == bv
	default:
		return false
	}
}
