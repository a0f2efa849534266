package cacheable

import (
	"fmt"
	"reflect"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// isNil reports untyped nil and nil pointers, maps, slices, chans, funcs and interfaces.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// as converts an adapter value to V. nil becomes the zero V.
func as[V any](op string, key Key, v any) (V, error) {
	var zero V
	if v == nil {
		return zero, nil
	}
	tv, ok := v.(V)
	if !ok {
		return zero, &BackendError{Op: op, Key: key, Err: fmt.Errorf("%w: got %T, want %T", ErrValueType, v, zero)}
	}
	return tv, nil
}
