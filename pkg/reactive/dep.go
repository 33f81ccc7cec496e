package reactive

import "sort"

// Dep is a broadcast channel for a single observed property. Watchers that
// read the property while active are subscribed; a write notifies them.
type Dep struct {
	id   uint64
	t    *Tracker
	subs []*Watcher
}

// NewDep creates a Dep bound to t.
func NewDep(t *Tracker) *Dep {
	return &Dep{id: t.newDepID(), t: t}
}

// ID returns the dep's unique identifier.
func (d *Dep) ID() uint64 {
	return d.id
}

// Depend registers the tracker's active watcher, if any, as a subscriber.
func (d *Dep) Depend() {
	if w := d.t.Target(); w != nil {
		w.addDep(d)
	}
}

// Notify calls Update on every subscriber in ascending watcher id order.
// The subscriber list is copied first so watchers may unsubscribe while
// being notified.
func (d *Dep) Notify() {
	if len(d.subs) == 0 {
		return
	}
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	for _, w := range subs {
		w.Update()
	}
}

// Subscribers returns a copy of the current subscriber set.
func (d *Dep) Subscribers() []*Watcher {
	out := make([]*Watcher, len(d.subs))
	copy(out, d.subs)
	return out
}

// Len returns the number of subscribers.
func (d *Dep) Len() int {
	return len(d.subs)
}

func (d *Dep) addSub(w *Watcher) {
	for _, existing := range d.subs {
		if existing == w {
			return
		}
	}
	d.subs = append(d.subs, w)
}

func (d *Dep) removeSub(w *Watcher) {
	for i, existing := range d.subs {
		if existing == w {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}
