package reactive

import "sort"

// List is an observed ordered sequence. Element access cannot be
// intercepted per index, so every read depends on the list's own Dep and
// every structural mutation notifies it.
type List struct {
	t     *Tracker
	items []any
	dep   *Dep
}

// NewList wraps items. Container elements are observed eagerly.
func NewList(t *Tracker, items []any) *List {
	l := &List{t: t, items: items, dep: NewDep(t)}
	for i, v := range items {
		if obs, ok := Observe(t, v); ok {
			items[i] = obs
		}
	}
	return l
}

// Dep returns the list's dep.
func (l *List) Dep() *Dep {
	return l.dep
}

// Len returns the number of elements and tracks the read.
func (l *List) Len() int {
	l.dep.Depend()
	return len(l.items)
}

// At returns element i and tracks the read. Out of range returns nil.
func (l *List) At(i int) any {
	l.dep.Depend()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	v := l.items[i]
	if f, ok := v.(Frozen); ok {
		return f.Value
	}
	if d := containerDep(v); d != nil {
		d.Depend()
	}
	return v
}

// Items returns a copy of the elements and tracks the read, including the
// container deps of nested observed elements.
func (l *List) Items() []any {
	l.dep.Depend()
	if l.t.Target() != nil {
		dependList(l)
	}
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Push appends values and returns the new length.
func (l *List) Push(values ...any) int {
	l.items = append(l.items, l.observe(values)...)
	l.dep.Notify()
	return len(l.items)
}

// Pop removes and returns the last element.
func (l *List) Pop() any {
	var v any
	if n := len(l.items); n > 0 {
		v = l.items[n-1]
		l.items = l.items[:n-1]
	}
	l.dep.Notify()
	return v
}

// Shift removes and returns the first element.
func (l *List) Shift() any {
	var v any
	if len(l.items) > 0 {
		v = l.items[0]
		l.items = append(l.items[:0:0], l.items[1:]...)
	}
	l.dep.Notify()
	return v
}

// Unshift prepends values and returns the new length.
func (l *List) Unshift(values ...any) int {
	items := make([]any, 0, len(values)+len(l.items))
	items = append(items, l.observe(values)...)
	l.items = append(items, l.items...)
	l.dep.Notify()
	return len(l.items)
}

// Splice removes deleteCount elements starting at start, inserts values in
// their place and returns the removed elements. A negative start counts
// from the end.
func (l *List) Splice(start, deleteCount int, values ...any) []any {
	n := len(l.items)
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}
	values = l.observe(values)

	removed := make([]any, deleteCount)
	copy(removed, l.items[start:start+deleteCount])

	items := make([]any, 0, n-deleteCount+len(values))
	items = append(items, l.items[:start]...)
	items = append(items, values...)
	items = append(items, l.items[start+deleteCount:]...)
	l.items = items

	l.dep.Notify()
	return removed
}

// SetAt replaces element i. Indices past the end extend the list.
func (l *List) SetAt(i int, value any) {
	if i < 0 {
		return
	}
	if i >= len(l.items) {
		pad := make([]any, i-len(l.items))
		l.Splice(len(l.items), 0, append(pad, value)...)
		return
	}
	l.Splice(i, 1, value)
}

// Sort orders the elements with less and notifies readers.
func (l *List) Sort(less func(a, b any) bool) {
	sort.SliceStable(l.items, func(i, j int) bool { return less(l.items[i], l.items[j]) })
	l.dep.Notify()
}

// Reverse reverses the elements in place and notifies readers.
func (l *List) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.dep.Notify()
}

// observe returns a copy of values with containers wrapped.
func (l *List) observe(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if obs, ok := Observe(l.t, v); ok {
			v = obs
		}
		out[i] = v
	}
	return out
}
