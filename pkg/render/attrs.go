package render

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/vdom"
)

// diffAttributes applies the difference between the cached attributes in
// m and attrs to dom, and updates the cache.
func (r *Renderer) diffAttributes(dom host.Node, attrs vdom.Attrs, m *nodeMeta) {
	old := m.attrs

	for _, name := range sortedKeys(old) {
		if attrs[name] == nil && old[name] != nil {
			prev := old[name]
			delete(old, name)
			r.setAccessor(dom, m, name, prev, nil)
		}
	}

	for _, name := range sortedKeys(attrs) {
		if name == "children" || name == "innerHTML" {
			continue
		}
		value := attrs[name]
		prev, had := old[name]
		var same bool
		switch {
		case !had:
		case (name == "value" || name == "checked") && r.host.HasProperty(dom, name):
			same = equalProp(r.host.Property(dom, name), value)
		default:
			same = equalAttr(prev, value)
		}
		if same {
			continue
		}
		old[name] = value
		r.setAccessor(dom, m, name, prev, value)
	}
}

// setAccessor applies one attribute change to a live node.
func (r *Renderer) setAccessor(dom host.Node, m *nodeMeta, name string, old, value any) {
	if name == "className" {
		name = "class"
	}

	switch {
	case name == "key":

	case name == "ref":
		if old != nil {
			r.callRef(old, nil)
		}
		if value != nil {
			r.callRef(value, dom)
		}

	case name == "class":
		if s := attrString(value); s != "" {
			r.host.SetAttribute(dom, "class", s)
		} else {
			r.host.RemoveAttribute(dom, "class")
		}

	case name == "style":
		r.setStyle(dom, old, value)

	case len(name) > 2 && name[0] == 'o' && name[1] == 'n':
		r.setListener(dom, m, name, old, value)

	case name != "list" && name != "type" && !r.svgMode && r.host.HasProperty(dom, name):
		if err := r.host.SetProperty(dom, name, value); err != nil {
			r.logger.Debug("property rejected", "attr", name, "error", err)
			r.metrics.RecordHostError(name)
		}
		if isFalsy(value) {
			r.host.RemoveAttribute(dom, name)
		}

	default:
		if isFalsy(value) {
			r.host.RemoveAttribute(dom, name)
		} else if reflect.TypeOf(value).Kind() != reflect.Func {
			r.host.SetAttribute(dom, name, attrString(value))
		}
	}
}

func (r *Renderer) setStyle(dom host.Node, old, value any) {
	value = reactive.ToRaw(value)
	old = reactive.ToRaw(old)

	next, isMap := styleMap(value)
	_, oldIsString := old.(string)
	if !isMap || oldIsString {
		r.host.SetStyleText(dom, attrString(value))
	}
	if !isMap {
		return
	}

	if prev, ok := styleMap(old); ok && !oldIsString {
		for _, prop := range sortedKeys(prev) {
			if _, keep := next[prop]; !keep {
				r.host.SetStyle(dom, prop, "")
			}
		}
	}
	for _, prop := range sortedKeys(next) {
		r.host.SetStyle(dom, prop, r.styleValue(prop, next[prop]))
	}
}

// styleValue formats a style value. Bare numbers get a px suffix unless the
// property is unit-less.
func (r *Renderer) styleValue(prop string, v any) string {
	if s, ok := numberString(v); ok {
		if r.unitless[prop] {
			return s
		}
		return s + "px"
	}
	if v == nil {
		return ""
	}
	return attrString(v)
}

// setListener installs one host listener per event slot. The listener
// looks up the current handler on each event, so replacing a handler does
// not touch the host.
func (r *Renderer) setListener(dom host.Node, m *nodeMeta, name string, old, value any) {
	capture := strings.HasSuffix(name, "Capture")
	event := strings.ToLower(strings.TrimSuffix(name, "Capture")[2:])
	slot := listenerSlot{event: event, capture: capture}

	if value != nil {
		if old == nil {
			r.host.AddEventListener(dom, event, capture, func(e host.Event) {
				r.dispatch(dom, slot, e)
			})
		}
	} else {
		r.host.RemoveEventListener(dom, event, capture)
	}

	if m.listeners == nil {
		m.listeners = make(map[listenerSlot]any)
	}
	if value == nil {
		delete(m.listeners, slot)
	} else {
		m.listeners[slot] = value
	}
}

func (r *Renderer) dispatch(dom host.Node, slot listenerSlot, e host.Event) {
	m := r.meta(dom)
	if m == nil {
		return
	}
	switch fn := m.listeners[slot].(type) {
	case func(host.Event):
		fn(e)
	case func():
		fn()
	case func(any):
		fn(e)
	case nil:
	default:
		r.logger.Warn("unsupported event handler", "event", slot.event, "type", fmt.Sprintf("%T", fn))
	}
}

// equalAttr reports whether an attribute value is unchanged. Functions
// never compare equal.
func equalAttr(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a).Kind() == reflect.Func || reflect.TypeOf(b).Kind() == reflect.Func {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// equalProp compares a live property with a new attribute value. String
// properties compare against the value's string form.
func equalProp(prop, value any) bool {
	if s, ok := prop.(string); ok {
		if value == nil {
			return s == ""
		}
		return s == attrString(value)
	}
	if value == nil {
		return prop == nil || prop == false
	}
	return equalAttr(prop, value)
}

func isFalsy(v any) bool {
	return v == nil || v == false
}

func attrString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	}
	if s, ok := numberString(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

func numberString(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

func styleMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case vdom.Attrs:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
