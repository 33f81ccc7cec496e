// Package render mounts virtual trees into a host tree and keeps them in
// sync with component state.
//
// A Renderer reconciles a vdom.VNode tree against live host nodes with the
// fewest mutations it can: text nodes are updated in place, keyed children
// are matched by key and moved rather than recreated, unkeyed children are
// matched by node type, and attributes are diffed against a per-node cache.
//
// # Components
//
// Components are defined with Define (or Func for stateless render
// functions). Every mounted component is an Instance with observed props and
// state records. Its render function runs inside a render watcher, so any
// record property it reads becomes a dependency; writing one of them marks
// the instance dirty and enqueues it on the scheduler. A flush re-renders
// dirty instances in creation order, parents before children.
//
//	counter := render.Define(render.Spec{
//	    Name:  "Counter",
//	    State: func(c *render.Instance) map[string]any { return map[string]any{"n": 0} },
//	    Render: func(c *render.Instance) *vdom.VNode {
//	        return vdom.Button(
//	            vdom.OnClick(func() { c.State().Set("n", c.State().Get("n").(int)+1) }),
//	            vdom.Textf("clicked %d times", c.State().Get("n")),
//	        )
//	    },
//	})
//
//	r := render.New(doc)
//	root, err := r.Mount(ctx, vdom.H(counter, nil), container, nil)
//
// A component whose render output is another component delegates to it:
// both instances share the innermost instance's live root.
//
// # Lifecycle
//
// Instances move through the phases mounting, mounted, updating and
// unmounting. Per-type methods on Spec and renderer-wide Hooks observe each
// transition. Mount hooks fire bottom-up once the outermost reconciliation
// pass that created them returns.
//
// # Errors
//
// A panic or error inside a render function or lifecycle method aborts the
// pass and is returned as a *RenderError from Mount, Flush or ForceUpdate.
// Failures inside user watcher callbacks are logged and swallowed. Property
// writes the host rejects are logged and ignored.
//
// A Renderer is not safe for concurrent use.
package render
