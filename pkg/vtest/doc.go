// Package vtest provides a harness for testing components.
//
// A Harness wires an in-memory host document, a manual deferrer and a
// renderer together, and records every lifecycle hook the renderer fires.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t)
//	    h.Mount(vdom.H(Counter, nil))
//	    vtest.ExpectMarkup(t, h, `<button>0</button>`)
//
//	    h.Instance().SetState(map[string]any{"n": 1}, nil)
//	    h.MustFlush()
//	    vtest.ExpectMarkup(t, h, `<button>1</button>`)
//	}
//
// # Mutation Assertions
//
// The document logs every host mutation. TakeLog returns and clears it, so
// a test can assert on exactly what one update did:
//
//	h.TakeLog()
//	h.MustRender(sameTree)
//	vtest.ExpectNoMutations(t, h.TakeLog())
//
// # Hook Recording
//
// Events returns the hooks fired so far as "hook:Component" strings in
// firing order:
//
//	if got := h.Events.Count("afterUpdate", "Counter"); got != 1 {
//	    t.Errorf("expected 1 update, got %d", got)
//	}
package vtest
