package reactive

import (
	"math"
	"reflect"
)

// SameValue reports whether a and b are the same value: scalars compare by
// value with NaN equal to itself, containers, maps, slices and funcs compare by
// identity.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return x == y || (math.IsNaN(x) && math.IsNaN(y))
		}
		return false
	case float32:
		if y, ok := b.(float32); ok {
			return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
		}
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}
