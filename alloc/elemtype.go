package alloc

import (
	"reflect"
	"sync"
)

var elemTypeCache sync.Map // reflect.Type -> bool

// pointerFree reports whether values of t hold no Go pointers and can live in
// memory the garbage collector does not scan.
func pointerFree(t reflect.Type) bool {
	if v, ok := elemTypeCache.Load(t); ok {
		return v.(bool)
	}
	ok := walkPointerFree(t)
	elemTypeCache.Store(t, ok)
	return ok
}

func walkPointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || walkPointerFree(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !walkPointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// PointerFree reports whether T can be stored in buffers.
func PointerFree[T any]() bool {
	var zero T
	return pointerFree(reflect.TypeOf(&zero).Elem())
}
