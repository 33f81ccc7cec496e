package render_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/ango/pkg/reactive"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
	"github.com/vango-dev/ango/pkg/vtest"
)

// counter renders its "n" state in a button and counts renders and updates.
type counter struct {
	renders int
	updates int
	prev    []map[string]any
	comp    *render.Component
}

func newCounter(spec render.Spec) *counter {
	c := &counter{}
	if spec.Name == "" {
		spec.Name = "Counter"
	}
	if spec.State == nil {
		spec.State = func(*render.Instance) map[string]any {
			return map[string]any{"n": 0, "other": 0}
		}
	}
	spec.Render = func(i *render.Instance) *vdom.VNode {
		c.renders++
		return vdom.Button(vdom.Textf("%v", i.State().Get("n")))
	}
	didUpdate := spec.DidUpdate
	spec.DidUpdate = func(i *render.Instance, prevProps, prevState, prevContext map[string]any) {
		c.updates++
		c.prev = append(c.prev, prevState)
		if didUpdate != nil {
			didUpdate(i, prevProps, prevState, prevContext)
		}
	}
	c.comp = render.Define(spec)
	return c
}

func label(name string) *render.Component {
	return render.Define(render.Spec{
		Name: name,
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Span(c.Props().Get("children"))
		},
	})
}

func TestMountLifecycleOrder(t *testing.T) {
	child := label("Child")
	parent := render.Define(render.Spec{
		Name: "Parent",
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Div(vdom.H(child, nil, "x"))
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.H(parent, nil))

	want := []string{
		"beforeMount:Parent",
		"beforeMount:Child",
		"afterMount:Child",
		"afterMount:Parent",
	}
	if diff := cmp.Diff(want, h.Events.Events()); diff != "" {
		t.Errorf("Unexpected hook order (-want +got):\n%s", diff)
	}
	if got := h.Instance().Phase(); got != render.PhaseMounted {
		t.Errorf("Expected phase mounted, got %s", got)
	}
	vtest.ExpectMarkup(t, h, `<div><span>x</span></div>`)
}

func TestLifecycleMethodPhases(t *testing.T) {
	var phases []string
	record := func(name string) func(c *render.Instance) {
		return func(c *render.Instance) {
			phases = append(phases, name+"="+c.Phase().String())
		}
	}
	comp := render.Define(render.Spec{
		Name:      "Phased",
		WillMount: record("WillMount"),
		DidMount:  record("DidMount"),
		WillUpdate: func(c *render.Instance, _, _ map[string]any) {
			record("WillUpdate")(c)
		},
		DidUpdate: func(c *render.Instance, _, _, _ map[string]any) {
			record("DidUpdate")(c)
		},
		WillUnmount: record("WillUnmount"),
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.P("x")
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.H(comp, nil))
	inst := h.Instance()
	if err := inst.ForceUpdate(nil); err != nil {
		t.Fatalf("ForceUpdate failed: %v", err)
	}
	if err := h.Unmount(); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}

	want := []string{
		"WillMount=mounting",
		"DidMount=mounted",
		"WillUpdate=updating",
		"DidUpdate=updating",
		"WillUnmount=unmounting",
	}
	if diff := cmp.Diff(want, phases); diff != "" {
		t.Errorf("Unexpected phases (-want +got):\n%s", diff)
	}
	if inst.Phase() != render.PhaseUnmounted {
		t.Errorf("Expected phase unmounted, got %s", inst.Phase())
	}
}

func TestSetStateBatchesUpdates(t *testing.T) {
	c := newCounter(render.Spec{})
	h := vtest.New(t)
	h.Mount(vdom.H(c.comp, nil))
	inst := h.Instance()

	inst.SetState(map[string]any{"n": 1}, nil)
	inst.SetState(map[string]any{"n": 2}, nil)

	if !inst.Dirty() {
		t.Fatal("Expected instance to be dirty")
	}
	vtest.ExpectMarkup(t, h, `<button>0</button>`)

	h.MustFlush()

	if c.renders != 2 {
		t.Errorf("Expected 2 renders (mount + 1 update), got %d", c.renders)
	}
	if c.updates != 1 {
		t.Errorf("Expected 1 DidUpdate, got %d", c.updates)
	}
	if h.Events.Count("afterUpdate", "Counter") != 1 {
		t.Errorf("Expected 1 afterUpdate hook, got %v", h.Events.Events())
	}
	if c.prev[0]["n"] != 0 {
		t.Errorf("Expected prevState n=0, got %v", c.prev[0]["n"])
	}
	vtest.ExpectMarkup(t, h, `<button>2</button>`)
}

func TestSetStateCallbacks(t *testing.T) {
	c := newCounter(render.Spec{})
	h := vtest.New(t)
	h.Mount(vdom.H(c.comp, nil))
	inst := h.Instance()

	var seen []string
	inst.SetState(map[string]any{"n": 1}, func() {
		seen = append(seen, "first:"+h.Markup())
	})
	inst.UpdateState(func(state, props map[string]any) map[string]any {
		return map[string]any{"n": state["n"].(int) + 10}
	}, func() {
		seen = append(seen, "second:"+h.Markup())
	})
	if len(seen) != 0 {
		t.Fatal("Expected callbacks to wait for the render")
	}

	h.MustFlush()

	want := []string{"first:<button>11</button>", "second:<button>11</button>"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("Unexpected callbacks (-want +got):\n%s", diff)
	}
}

func TestShouldUpdateSkipStillCommitsState(t *testing.T) {
	var prevSeen map[string]any
	c := newCounter(render.Spec{
		ShouldUpdate: func(_ *render.Instance, _, prevState map[string]any) bool {
			prevSeen = prevState
			return false
		},
	})
	h := vtest.New(t)
	h.Mount(vdom.H(c.comp, nil))
	inst := h.Instance()
	h.TakeLog()

	inst.SetState(map[string]any{"n": 5}, nil)
	h.MustFlush()

	vtest.ExpectNoMutations(t, h.TakeLog())
	if c.renders != 1 {
		t.Errorf("Expected the render to be skipped, got %d renders", c.renders)
	}
	if got := inst.State().Get("n"); got != 5 {
		t.Errorf("Expected committed state n=5, got %v", got)
	}
	if prevSeen["n"] != 0 {
		t.Errorf("Expected ShouldUpdate to see prevState n=0, got %v", prevSeen["n"])
	}
	if got := h.Counter("render_skips_total", "Counter"); got != 1 {
		t.Errorf("Expected 1 skipped render, got %v", got)
	}

	// ForceUpdate bypasses ShouldUpdate.
	if err := inst.ForceUpdate(nil); err != nil {
		t.Fatalf("ForceUpdate failed: %v", err)
	}
	vtest.ExpectMarkup(t, h, `<button>5</button>`)
}

func TestDirectStateWritesTrackReads(t *testing.T) {
	c := newCounter(render.Spec{})
	h := vtest.New(t)
	h.Mount(vdom.H(c.comp, nil))
	inst := h.Instance()

	inst.State().Set("other", 1)
	h.MustFlush()
	if c.renders != 1 {
		t.Errorf("Expected no render for an unread key, got %d renders", c.renders)
	}

	inst.State().Set("n", 0)
	h.MustFlush()
	if c.renders != 1 {
		t.Errorf("Expected no render for an equal value, got %d renders", c.renders)
	}

	inst.State().Set("n", 3)
	h.MustFlush()
	if c.renders != 2 {
		t.Errorf("Expected a render for a read key, got %d renders", c.renders)
	}
	vtest.ExpectMarkup(t, h, `<button>3</button>`)
}

func TestParentPassesProps(t *testing.T) {
	var received []any
	childRenders := 0
	child := render.Define(render.Spec{
		Name: "Child",
		WillReceiveProps: func(_ *render.Instance, next, _ map[string]any) {
			received = append(received, next["text"])
		},
		Render: func(c *render.Instance) *vdom.VNode {
			childRenders++
			return vdom.Span(c.Props().Get("text"))
		},
	})
	parent := render.Define(render.Spec{
		Name: "Parent",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"text": "a"}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Div(vdom.H(child, vdom.Attrs{"text": c.State().Get("text")}))
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.H(parent, nil))
	span := h.Root().Child(0)
	childInst := h.InstanceOf(span)

	h.Instance().SetState(map[string]any{"text": "b"}, nil)
	// The child is queued too; the parent's render absorbs its update.
	childInst.SetState(map[string]any{"unused": true}, nil)
	h.MustFlush()

	vtest.ExpectMarkup(t, h, `<div><span>b</span></div>`)
	if h.InstanceOf(h.Root().Child(0)) != childInst {
		t.Error("Expected the child instance to be reused")
	}
	if childRenders != 2 {
		t.Errorf("Expected 2 child renders, got %d", childRenders)
	}
	if diff := cmp.Diff([]any{"b"}, received); diff != "" {
		t.Errorf("Unexpected WillReceiveProps (-want +got):\n%s", diff)
	}
}

func TestSkippedParentStillFlushesDirtyChild(t *testing.T) {
	child := newCounter(render.Spec{Name: "Child"})
	parent := render.Define(render.Spec{
		Name: "Parent",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"v": 0}
		},
		ShouldUpdate: func(*render.Instance, map[string]any, map[string]any) bool { return false },
		Render: func(c *render.Instance) *vdom.VNode {
			c.State().Get("v")
			return vdom.Div(vdom.H(child.comp, nil))
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.H(parent, nil))
	childInst := h.InstanceOf(h.Root().Child(0))

	h.Instance().SetState(map[string]any{"v": 1}, nil)
	childInst.SetState(map[string]any{"n": 7}, nil)
	h.MustFlush()

	vtest.ExpectMarkup(t, h, `<div><button>7</button></div>`)
	if child.renders != 2 {
		t.Errorf("Expected the child to render once more, got %d renders", child.renders)
	}
}

func TestKeyedComponentsKeepIdentity(t *testing.T) {
	item := render.Define(render.Spec{
		Name: "Item",
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Li(c.Props().Get("children"))
		},
	})
	list := func(keys ...string) *vdom.VNode {
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = vdom.Component(item, vdom.Key(k), k)
		}
		return vdom.Ul(items...)
	}

	h := vtest.New(t)
	root := h.Mount(list("a", "b", "c"))
	instances := map[string]*render.Instance{}
	for _, li := range root.Children() {
		instances[li.TextContent()] = h.InstanceOf(li)
	}
	h.Events.Reset()

	h.MustRender(list("c", "a", "b"))

	for i, li := range root.Children() {
		k := li.TextContent()
		if string("cab"[i]) != k {
			t.Fatalf("Expected order cab, got %s at %d", k, i)
		}
		if h.InstanceOf(li) != instances[k] {
			t.Errorf("Expected instance %s to survive the reorder", k)
		}
		if instances[k].Key() != k {
			t.Errorf("Expected key %s, got %s", k, instances[k].Key())
		}
	}
	if got := h.Events.Filter("beforeMount"); len(got) != 0 {
		t.Errorf("Expected no mounts, got %v", got)
	}
	if got := h.Events.Filter("beforeUnmount"); len(got) != 0 {
		t.Errorf("Expected no unmounts, got %v", got)
	}
}

func TestDelegationChain(t *testing.T) {
	inner := label("Inner")
	other := label("Other")
	outer := render.Define(render.Spec{
		Name: "Outer",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"text": "a", "swap": false}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			if c.State().Get("swap") == true {
				return vdom.H(other, nil, "other")
			}
			return vdom.H(inner, nil, c.State().Get("text"))
		},
	})

	h := vtest.New(t)
	root := h.Mount(vdom.H(outer, nil))
	outerInst := h.Instance()
	if outerInst.Name() != "Outer" {
		t.Fatalf("Expected the root to belong to Outer, got %s", outerInst.Name())
	}
	if outerInst.Base() != root {
		t.Fatal("Expected Outer to share the inner live root")
	}
	vtest.ExpectMarkup(t, h, `<span>a</span>`)

	outerInst.SetState(map[string]any{"text": "b"}, nil)
	h.MustFlush()
	if h.Root() != root {
		t.Fatal("Expected the delegate to be updated in place")
	}
	vtest.ExpectMarkup(t, h, `<span>b</span>`)
	if h.Events.Count("beforeUnmount", "Inner") != 0 {
		t.Fatal("Expected Inner to stay mounted")
	}

	outerInst.SetState(map[string]any{"swap": true}, nil)
	h.MustFlush()

	vtest.ExpectMarkup(t, h, `<span>other</span>`)
	if h.Events.Count("beforeUnmount", "Inner") != 1 {
		t.Errorf("Expected Inner to be unmounted, got %v", h.Events.Events())
	}
	if h.Events.Count("afterMount", "Other") != 1 {
		t.Errorf("Expected Other to be mounted, got %v", h.Events.Events())
	}
	if got := h.InstanceOf(h.Container.Child(0)); got != outerInst {
		t.Errorf("Expected Outer to own the new root, got %v", got)
	}
	if n := h.Renderer.Pooled(inner); n != 1 {
		t.Errorf("Expected Inner's root to be pooled, got %d", n)
	}
}

func TestPoolRecyclesRoots(t *testing.T) {
	item := label("Item")
	parent := render.Define(render.Spec{
		Name: "Toggle",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"show": true}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Div(vdom.If(c.State().Get("show") == true, vdom.H(item, nil, "item")))
		},
	})

	h := vtest.New(t)
	root := h.Mount(vdom.H(parent, nil))
	span := root.Child(0)
	toggle := h.Instance()

	toggle.SetState(map[string]any{"show": false}, nil)
	h.MustFlush()
	if len(root.Children()) != 0 {
		t.Fatal("Expected the item to be removed")
	}
	if n := h.Renderer.Pooled(item); n != 1 {
		t.Fatalf("Expected 1 pooled root, got %d", n)
	}

	toggle.SetState(map[string]any{"show": true}, nil)
	h.MustFlush()
	if root.Child(0) != span {
		t.Fatal("Expected the pooled root to be reused")
	}
	if n := h.Renderer.Pooled(item); n != 0 {
		t.Errorf("Expected the pool to be drained, got %d", n)
	}
	if got := h.Counter("pool_hits_total", ""); got != 1 {
		t.Errorf("Expected 1 pool hit, got %v", got)
	}
	vtest.ExpectMarkup(t, h, `<div><span>item</span></div>`)
}

func TestPoolDisabled(t *testing.T) {
	item := label("Item")
	h := vtest.New(t, render.WithPoolSize(0))
	h.Mount(vdom.Div(vdom.H(item, nil, "x")))
	h.MustRender(vdom.Div())
	if n := h.Renderer.Pooled(item); n != 0 {
		t.Fatalf("Expected no pooling, got %d", n)
	}
}

func TestUnmountReleasesWatchers(t *testing.T) {
	comp := render.Define(render.Spec{
		Name: "Leaky",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"n": 1, "user": map[string]any{"name": "a"}}
		},
		Computed: map[string]func(*render.Instance) any{
			"double": func(c *render.Instance) any { return c.State().Get("n").(int) * 2 },
		},
		Watch: map[string]func(*render.Instance, any, any){
			"user.name": func(*render.Instance, any, any) {},
		},
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.P(c.Computed("double"), c.Props().Get("title"))
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(comp, vdom.Attrs{"title": "t"})))
	inst := h.InstanceOf(h.Root().Child(0))
	if _, err := inst.Watch("n", func(any, any) {}, render.WatchOptions{Deep: true}); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	watchers := inst.Watchers()
	if len(watchers) != 4 {
		t.Fatalf("Expected 4 watchers (render, computed, 2 user), got %d", len(watchers))
	}
	var deps []*reactive.Dep
	deps = append(deps, inst.State().Deps()...)
	deps = append(deps, inst.Props().Deps()...)
	if user, ok := inst.State().Peek("user").(*reactive.Record); ok {
		deps = append(deps, user.Deps()...)
	}

	h.MustRender(vdom.Div())

	for _, w := range watchers {
		if w.Active() {
			t.Errorf("Expected watcher %q to be torn down", w.Label())
		}
		if ids := w.DepIDs(); len(ids) != 0 {
			t.Errorf("Expected watcher %q to hold no deps, got %v", w.Label(), ids)
		}
	}
	for _, d := range deps {
		if n := d.Len(); n != 0 {
			t.Errorf("Expected dep %d to have no subscribers, got %d", d.ID(), n)
		}
	}
	if n := h.Renderer.Instances(); n != 0 {
		t.Errorf("Expected no live instances, got %d", n)
	}
	if inst.Dirty() {
		t.Error("Expected an unmounted instance not to be dirty")
	}
}

func TestUnmountedInstanceIgnoresUpdates(t *testing.T) {
	c := newCounter(render.Spec{})
	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(c.comp, nil)))
	inst := h.InstanceOf(h.Root().Child(0))

	h.MustRender(vdom.Div())
	inst.SetState(map[string]any{"n": 1}, nil)
	h.MustFlush()

	if c.renders != 1 {
		t.Errorf("Expected no render after unmount, got %d", c.renders)
	}
	if err := inst.ForceUpdate(nil); !errors.Is(err, render.ErrUnmounted) {
		t.Errorf("Expected ErrUnmounted, got %v", err)
	}
}

func TestUnmountedBeforeFlushIsNoop(t *testing.T) {
	c := newCounter(render.Spec{})
	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(c.comp, nil)))
	inst := h.InstanceOf(h.Root().Child(0))

	inst.SetState(map[string]any{"n": 1}, nil)
	h.MustRender(vdom.Div())
	h.MustFlush()

	if c.renders != 1 {
		t.Errorf("Expected the queued render to be dropped, got %d renders", c.renders)
	}
}

func TestRenderErrorOnMount(t *testing.T) {
	broken := render.Define(render.Spec{
		Name: "Broken",
		Render: func(*render.Instance) *vdom.VNode {
			panic("boom")
		},
	})

	h := vtest.New(t)
	_, err := h.Renderer.Mount(context.Background(), vdom.Div(vdom.H(broken, nil)), h.Container, nil)

	var re *render.RenderError
	if !errors.As(err, &re) {
		t.Fatalf("Expected RenderError, got %v", err)
	}
	if re.Component != "Broken" || re.Method != "Render" || re.Phase != render.PhaseMounting {
		t.Errorf("Unexpected error fields: %+v", re)
	}
	var pe *reactive.PanicError
	if !errors.As(err, &pe) || pe.Value != "boom" {
		t.Errorf("Expected PanicError with value boom, got %v", err)
	}
	if n := h.Renderer.Instances(); n != 0 {
		t.Errorf("Expected the failed instance to be discarded, got %d", n)
	}
	if got := h.Events.Filter("afterMount"); len(got) != 0 {
		t.Errorf("Expected no mount hooks after a failed pass, got %v", got)
	}
}

func TestRenderErrorOnUpdate(t *testing.T) {
	comp := render.Define(render.Spec{
		Name: "Fragile",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"fail": false}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			if c.State().Get("fail") == true {
				panic(errors.New("bad state"))
			}
			return vdom.P("ok")
		},
	})

	t.Run("flush", func(t *testing.T) {
		h := vtest.New(t)
		h.Mount(vdom.H(comp, nil))
		h.Instance().SetState(map[string]any{"fail": true}, nil)

		err := h.Renderer.Flush(context.Background())
		var re *render.RenderError
		if !errors.As(err, &re) || re.Method != "Render" || re.Phase != render.PhaseUpdating {
			t.Fatalf("Expected Render error while updating, got %v", err)
		}
		if h.Instance() == nil {
			t.Fatal("Expected the instance to stay mounted")
		}
		vtest.ExpectMarkup(t, h, `<p>ok</p>`)
	})

	t.Run("deferred flush", func(t *testing.T) {
		h := vtest.New(t)
		h.Mount(vdom.H(comp, nil))
		h.Instance().SetState(map[string]any{"fail": true}, nil)

		if err := h.Flush(); err == nil {
			t.Fatal("Expected the deferred flush to report the error")
		}
	})

	t.Run("force update", func(t *testing.T) {
		h := vtest.New(t)
		h.Mount(vdom.H(comp, nil))
		inst := h.Instance()
		inst.State().Set("fail", true)

		err := inst.ForceUpdate(nil)
		var re *render.RenderError
		if !errors.As(err, &re) || re.Component != "Fragile" {
			t.Fatalf("Expected RenderError from ForceUpdate, got %v", err)
		}
	})
}

func TestLifecycleErrorPropagates(t *testing.T) {
	comp := render.Define(render.Spec{
		Name:      "BadMount",
		WillMount: func(*render.Instance) { panic("no") },
		Render:    func(*render.Instance) *vdom.VNode { return vdom.P() },
	})
	h := vtest.New(t)
	_, err := h.Renderer.Mount(context.Background(), vdom.H(comp, nil), h.Container, nil)
	var re *render.RenderError
	if !errors.As(err, &re) || re.Method != "WillMount" {
		t.Fatalf("Expected WillMount error, got %v", err)
	}
	if n := h.Renderer.Instances(); n != 0 {
		t.Errorf("Expected no live instances, got %d", n)
	}
}

func TestUnmountHookFailureStillTearsDown(t *testing.T) {
	comp := render.Define(render.Spec{
		Name:        "BadUnmount",
		WillUnmount: func(*render.Instance) { panic("no") },
		Render:      func(*render.Instance) *vdom.VNode { return vdom.P() },
	})
	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(comp, nil)))
	h.MustRender(vdom.Div())

	if n := h.Renderer.Instances(); n != 0 {
		t.Errorf("Expected the instance to be removed, got %d", n)
	}
	vtest.ExpectMarkup(t, h, `<div></div>`)
}

func TestInfiniteUpdateGuard(t *testing.T) {
	c := newCounter(render.Spec{
		DidUpdate: func(i *render.Instance, _, _, _ map[string]any) {
			i.SetState(map[string]any{"n": i.State().Get("n").(int) + 1}, nil)
		},
	})
	h := vtest.New(t, render.WithMaxUpdateCount(5))
	h.Mount(vdom.H(c.comp, nil))

	h.Instance().SetState(map[string]any{"n": 1}, nil)
	err := h.Flush()
	if !errors.Is(err, sched.ErrInfiniteUpdate) {
		t.Fatalf("Expected ErrInfiniteUpdate, got %v", err)
	}
	if c.renders != 6 {
		t.Errorf("Expected 5 update renders plus the mount, got %d", c.renders)
	}
	if h.Instance().Dirty() {
		t.Error("Expected the aborted instance to accept new updates")
	}
}

func TestFailedFlushKeepsSchedulerLive(t *testing.T) {
	insts := map[string]*render.Instance{}
	item := render.Define(render.Spec{
		Name: "Item",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"n": 0, "fail": false}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			insts[c.Props().Get("name").(string)] = c
			if c.State().Get("fail") == true {
				panic(errors.New("bad state"))
			}
			return vdom.Span(c.State().Get("n"))
		},
	})
	h := vtest.New(t)
	h.Mount(vdom.Div(
		vdom.H(item, vdom.Attrs{"name": "a"}),
		vdom.H(item, vdom.Attrs{"name": "b"}),
	))
	a, b := insts["a"], insts["b"]

	a.SetState(map[string]any{"fail": true}, nil)
	b.SetState(map[string]any{"n": 1}, nil)
	err := h.Flush()
	var re *render.RenderError
	if !errors.As(err, &re) || re.Method != "Render" {
		t.Fatalf("Expected Render error, got %v", err)
	}
	vtest.ExpectMarkup(t, h, `<div><span>0</span><span>1</span></div>`)
	if b.Dirty() {
		t.Fatal("Expected b to be flushed after the failed job")
	}

	b.SetState(map[string]any{"n": 2}, nil)
	h.MustFlush()
	vtest.ExpectMarkup(t, h, `<div><span>0</span><span>2</span></div>`)

	a.SetState(map[string]any{"fail": false, "n": 3}, nil)
	h.MustFlush()
	vtest.ExpectMarkup(t, h, `<div><span>3</span><span>2</span></div>`)
}

func TestContextPropagation(t *testing.T) {
	consumer := render.Func("Consumer", func(props, context map[string]any) *vdom.VNode {
		return vdom.Span(fmt.Sprintf("%v/%v", context["theme"], props["size"]))
	})
	provider := render.Define(render.Spec{
		Name: "Provider",
		ChildContext: func(*render.Instance) map[string]any {
			return map[string]any{"theme": "dark"}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Div(vdom.H(consumer, vdom.Attrs{"size": 2}))
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.H(provider, nil))
	vtest.ExpectMarkup(t, h, `<div><span>dark/2</span></div>`)
}

func TestDefaultProps(t *testing.T) {
	comp := render.Define(render.Spec{
		Name:         "Sized",
		DefaultProps: map[string]any{"size": 3, "unit": "px"},
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Span(fmt.Sprintf("%v%v", c.Props().Get("size"), c.Props().Get("unit")))
		},
	})

	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(comp, nil), vdom.H(comp, vdom.Attrs{"size": 5})))
	vtest.ExpectMarkup(t, h, `<div><span>3px</span><span>5px</span></div>`)
}

func TestComponentRefs(t *testing.T) {
	comp := label("Target")
	var got *render.Instance
	ref := func(c *render.Instance) { got = c }

	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.Component(comp, vdom.Ref(ref), "x")))
	if got == nil || got.Name() != "Target" {
		t.Fatalf("Expected ref to receive the instance, got %v", got)
	}
	if _, ok := got.Props().Peek("ref").(func(*render.Instance)); ok {
		t.Error("Expected ref not to be passed as a prop")
	}

	h.MustRender(vdom.Div())
	if got != nil {
		t.Fatal("Expected ref to be called with nil on unmount")
	}
}

func TestComponentReplacedByElement(t *testing.T) {
	comp := label("Gone")
	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(comp, nil, "x")))
	h.MustRender(vdom.Div(vdom.Span("plain")))

	if h.Events.Count("beforeUnmount", "Gone") != 1 {
		t.Errorf("Expected the component to be unmounted, got %v", h.Events.Events())
	}
	vtest.ExpectMarkup(t, h, `<div><span>plain</span></div>`)
}

func TestKeyedComponentReplacedByElement(t *testing.T) {
	var ghost *render.Instance
	comp := render.Define(render.Spec{
		Name: "Ghost",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"v": "ghost"}
		},
		Render: func(c *render.Instance) *vdom.VNode {
			ghost = c
			return vdom.Span(c.State().Get("v"))
		},
	})

	tests := []struct {
		name   string
		before *vdom.VNode
		after  *vdom.VNode
		want   string
	}{
		{
			name:   "same key",
			before: vdom.Div(vdom.H(comp, vdom.Attrs{"key": "a"})),
			after:  vdom.Div(vdom.H("span", vdom.Attrs{"key": "a"}, "plain")),
			want:   `<div><span>plain</span></div>`,
		},
		{
			name:   "existing root",
			before: vdom.H(comp, nil),
			after:  vdom.H("span", nil, "plain"),
			want:   `<span>plain</span>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := vtest.New(t)
			h.Mount(tt.before)
			h.MustRender(tt.after)

			if h.Events.Count("beforeUnmount", "Ghost") != 1 {
				t.Errorf("Expected Ghost to be unmounted, got %v", h.Events.Events())
			}
			if n := h.Renderer.Instances(); n != 0 {
				t.Errorf("Expected no live instances, got %d", n)
			}
			if ghost.Phase() != render.PhaseUnmounted {
				t.Errorf("Expected PhaseUnmounted, got %v", ghost.Phase())
			}
			vtest.ExpectMarkup(t, h, tt.want)

			ghost.SetState(map[string]any{"v": "stale"}, nil)
			h.MustFlush()
			vtest.ExpectMarkup(t, h, tt.want)
		})
	}
}

func TestComponentTypeChange(t *testing.T) {
	a := label("A")
	b := label("B")
	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(a, nil, "a")))
	h.MustRender(vdom.Div(vdom.H(b, nil, "b")))

	got := h.Events.Events()
	if h.Events.Count("beforeUnmount", "A") != 1 || h.Events.Count("afterMount", "B") != 1 {
		t.Errorf("Expected A to be replaced by B, got %v", got)
	}
	vtest.ExpectMarkup(t, h, `<div><span>b</span></div>`)
	if n := h.Renderer.Instances(); n != 1 {
		t.Errorf("Expected 1 live instance, got %d", n)
	}
}

func TestUnknownComponentType(t *testing.T) {
	h := vtest.New(t)
	_, err := h.Renderer.Mount(context.Background(), vdom.H(foreignType{}, nil), h.Container, nil)
	if !errors.Is(err, render.ErrUnknownType) {
		t.Fatalf("Expected ErrUnknownType, got %v", err)
	}
}

type foreignType struct{}

func (foreignType) TypeID() vdom.TypeID { return 1 << 40 }
func (foreignType) TypeName() string    { return "Foreign" }

func TestMetrics(t *testing.T) {
	c := newCounter(render.Spec{})
	h := vtest.New(t)
	h.Mount(vdom.Div(vdom.H(c.comp, nil)))
	h.InstanceOf(h.Root().Child(0)).SetState(map[string]any{"n": 1}, nil)
	h.MustFlush()
	h.MustRender(vdom.Div())

	tests := []struct {
		name string
		want float64
	}{
		{"renders_total", 2},
		{"mounts_total", 1},
		{"unmounts_total", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Counter(tt.name, "Counter"); got != tt.want {
				t.Errorf("Expected %s=%v, got %v", tt.name, tt.want, got)
			}
		})
	}
	if got := h.Counter("flush_jobs_total", ""); got != 1 {
		t.Errorf("Expected 1 flushed job, got %v", got)
	}
}
