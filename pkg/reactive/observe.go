package reactive

import (
	"math"
	"reflect"
)

// Frozen marks a value that must never be observed. Wrapping foreign or
// immutable structures in Frozen keeps Observe from converting them.
type Frozen struct {
	Value any
}

// Freeze wraps v so Observe leaves it alone.
func Freeze(v any) Frozen {
	return Frozen{Value: v}
}

// Observe wraps plain containers so their reads and writes are tracked.
// map[string]any becomes a *Record and []any becomes a *List; existing
// Records and Lists are returned as is. Anything else, including Frozen
// values, is returned unchanged with ok == false.
func Observe(t *Tracker, v any) (observed any, ok bool) {
	switch val := v.(type) {
	case *Record:
		return val, true
	case *List:
		return val, true
	case map[string]any:
		if val == nil {
			return v, false
		}
		return NewRecord(t, val), true
	case []any:
		if val == nil {
			return v, false
		}
		return NewList(t, val), true
	default:
		return v, false
	}
}

// containerDep returns the container-level dep of an observed value.
func containerDep(v any) *Dep {
	switch val := v.(type) {
	case *Record:
		return val.dep
	case *List:
		return val.dep
	}
	return nil
}

func isContainer(v any) bool {
	switch v.(type) {
	case *Record, *List, map[string]any, []any:
		return true
	}
	return false
}

// dependList registers the active watcher on the container deps of every
// observed element of l, recursively for nested lists. Element reads cannot
// be intercepted, so this is the only way a reader of a list learns about
// mutations of the lists inside it.
func dependList(l *List) {
	for _, item := range l.items {
		if d := containerDep(item); d != nil {
			d.Depend()
		}
		if nested, ok := item.(*List); ok {
			dependList(nested)
		}
	}
}

// sameValue reports whether a and b are identical. NaN equals NaN; maps,
// slices and pointers compare by identity; functions never compare equal.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNaN(a) && isNaN(b) {
		return true
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !ta.Comparable() {
		return false
	}
	return safeEqual(a, b)
}

func safeEqual(a, b any) (eq bool) {
	// Arrays and structs holding interface fields can still panic on ==.
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

// ToRaw returns v with every Record and List replaced by plain maps and
// slices. Reads are not tracked.
func ToRaw(v any) any {
	switch val := v.(type) {
	case *Record:
		out := make(map[string]any, len(val.data))
		for k, item := range val.data {
			out[k] = ToRaw(item)
		}
		return out
	case *List:
		out := make([]any, len(val.items))
		for i, item := range val.items {
			out[i] = ToRaw(item)
		}
		return out
	case Frozen:
		return val.Value
	default:
		return v
	}
}

// Traverse reads every property reachable from v so the active watcher
// depends on all of them. It is what makes deep watchers deep.
func Traverse(v any) {
	traverse(v, make(map[any]struct{}))
}

func traverse(v any, seen map[any]struct{}) {
	switch val := v.(type) {
	case *Record:
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		for _, k := range val.Keys() {
			traverse(val.Get(k), seen)
		}
	case *List:
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		n := val.Len()
		for i := 0; i < n; i++ {
			traverse(val.At(i), seen)
		}
	}
}
