// Package equal implements structural equality over plain data.
//
// Deep walks slices, arrays, maps, structs, pointers and interfaces and
// compares leaves by value. It differs from reflect.DeepEqual in one way that
// matters for reducer output: a nil slice or map equals an empty one, because
// plain data has no notion of "absent list" versus "empty list". Both sides
// must have the same dynamic type at every level. Cyclic values are not
// supported.
package equal

import "reflect"

// Deep reports whether a and b are structurally equal.
func Deep(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return deepValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func deepValue(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		if a.Len() == 0 || a.UnsafePointer() == b.UnsafePointer() {
			return true
		}
		for i := 0; i < a.Len(); i++ {
			if !deepValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true

	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !deepValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true

	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		if a.Len() == 0 || a.UnsafePointer() == b.UnsafePointer() {
			return true
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !deepValue(iter.Value(), bv) {
				return false
			}
		}
		return true

	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !deepValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true

	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.UnsafePointer() == b.UnsafePointer() {
			return true
		}
		return deepValue(a.Elem(), b.Elem())

	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return deepValue(a.Elem(), b.Elem())

	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()

	default:
		// funcs, chans and unsafe pointers are not plain data
		return false
	}
}
