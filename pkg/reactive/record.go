package reactive

import "sort"

// Object is the capability set observed-record consumers use.
type Object interface {
	Get(key string) any
	Set(key string, value any)
	Keys() []string
}

var _ Object = (*Record)(nil)

// Record is an observed string-keyed record. Reads register the active
// watcher on the property's Dep; writes that change the value notify it.
// Nested maps and slices are wrapped lazily on first access.
type Record struct {
	t    *Tracker
	data map[string]any
	deps map[string]*Dep

	// dep tracks the key set: added and deleted keys notify it.
	dep *Dep

	beforeWrite func()
}

// RecordOption configures a Record.
type RecordOption func(*Record)

// BeforeWrite registers fn to run once before every effective mutation of
// the record (not of nested records). Used to snapshot previous state.
func BeforeWrite(fn func()) RecordOption {
	return func(r *Record) {
		r.beforeWrite = fn
	}
}

// NewRecord wraps data. The record takes ownership of the map; callers that
// need the original untouched must pass a copy.
func NewRecord(t *Tracker, data map[string]any, opts ...RecordOption) *Record {
	if data == nil {
		data = make(map[string]any)
	}
	r := &Record{
		t:    t,
		data: data,
		deps: make(map[string]*Dep),
		dep:  NewDep(t),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the value for key and tracks the read.
func (r *Record) Get(key string) any {
	tracking := r.t.Target() != nil
	if tracking {
		r.keyDep(key).Depend()
	}
	v, ok := r.data[key]
	if !ok {
		return nil
	}
	v = r.child(key, v)
	if tracking {
		if d := containerDep(v); d != nil {
			d.Depend()
			if l, ok := v.(*List); ok {
				dependList(l)
			}
		}
	}
	return v
}

// Peek returns the value for key without tracking.
func (r *Record) Peek(key string) any {
	v, ok := r.data[key]
	if !ok {
		return nil
	}
	return r.child(key, v)
}

// Has reports whether key is present and tracks the key set.
func (r *Record) Has(key string) bool {
	r.dep.Depend()
	_, ok := r.data[key]
	return ok
}

// Set stores value under key. Nothing is notified when the value is
// identical to the current one.
func (r *Record) Set(key string, value any) {
	old, exists := r.data[key]
	if exists && sameValue(old, value) {
		return
	}
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	r.data[key] = value
	if d := r.deps[key]; d != nil {
		d.Notify()
	}
	if !exists {
		r.dep.Notify()
	}
}

// Delete removes key and notifies readers of the key and of the key set.
func (r *Record) Delete(key string) {
	if _, ok := r.data[key]; !ok {
		return
	}
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	delete(r.data, key)
	if d := r.deps[key]; d != nil {
		d.Notify()
	}
	r.dep.Notify()
}

// Keys returns the sorted keys and tracks the key set.
func (r *Record) Keys() []string {
	r.dep.Depend()
	return r.sortedKeys()
}

// Len returns the number of keys and tracks the key set.
func (r *Record) Len() int {
	r.dep.Depend()
	return len(r.data)
}

// Merge sets every entry of m, in key order.
func (r *Record) Merge(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, m[k])
	}
}

// Assign makes the record's contents equal to m: missing keys are deleted,
// the rest merged.
func (r *Record) Assign(m map[string]any) {
	for _, k := range r.sortedKeys() {
		if _, ok := m[k]; !ok {
			r.Delete(k)
		}
	}
	r.Merge(m)
}

// Snapshot returns a shallow copy of the record's data without tracking.
func (r *Record) Snapshot() map[string]any {
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// Dep returns the key-set dep.
func (r *Record) Dep() *Dep {
	return r.dep
}

// KeyDep returns the dep for key, or nil if it was never read while tracking.
func (r *Record) KeyDep(key string) *Dep {
	return r.deps[key]
}

// Deps returns the key-set dep followed by every property dep in key order.
func (r *Record) Deps() []*Dep {
	keys := make([]string, 0, len(r.deps))
	for k := range r.deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Dep, 0, len(keys)+1)
	out = append(out, r.dep)
	for _, k := range keys {
		out = append(out, r.deps[k])
	}
	return out
}

func (r *Record) keyDep(key string) *Dep {
	d := r.deps[key]
	if d == nil {
		d = NewDep(r.t)
		r.deps[key] = d
	}
	return d
}

// child unwraps frozen values and lazily observes containers in place.
func (r *Record) child(key string, v any) any {
	if f, ok := v.(Frozen); ok {
		return f.Value
	}
	if obs, ok := Observe(r.t, v); ok {
		if obs != v {
			r.data[key] = obs
		}
		return obs
	}
	return v
}

func (r *Record) sortedKeys() []string {
	keys := make([]string, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
