package inspect

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/ango/pkg/doc"
	"github.com/vango-dev/ango/pkg/host/memhost"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/vdom"
)

const itemsDoc = `{
  "components": {
    "Item": {"props": {"label": "x"}, "render": {"tag": "li", "children": ["{{label}}"]}}
  },
  "root": {"tag": "ul", "children": [{"component": "Item", "props": {"label": "%s"}}]}
}`

func itemsWith(label string) string {
	return strings.Replace(itemsDoc, "%s", label, 1)
}

// start runs s in the background and serves its handler.
func start(t *testing.T, s *Server) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return ts
}

func post(t *testing.T, ts *httptest.Server, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/render", contentType, strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /render failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func get(t *testing.T, ts *httptest.Server, path string) []byte {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func renderOK(t *testing.T, ts *httptest.Server, body string) Batch {
	t.Helper()
	resp, data := post(t, ts, "application/json", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, data)
	}
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("Decode batch: %v", err)
	}
	return b
}

var structural = []memhost.Op{
	memhost.OpCreateElement, memhost.OpCreateText,
	memhost.OpInsertNode, memhost.OpMoveNode, memhost.OpRemoveNode,
}

func TestRenderAndUpdate(t *testing.T) {
	ts := start(t, New(nil))

	first := renderOK(t, ts, itemsWith("a"))
	if first.Seq != 1 || first.Source != "render" {
		t.Fatalf("Expected render batch 1, got %d %q", first.Seq, first.Source)
	}
	if memhost.Count(first.Mutations, memhost.OpCreateElement) != 2 {
		t.Errorf("Expected ul and li to be created:\n%s", memhost.FormatLog(first.Mutations))
	}

	second := renderOK(t, ts, itemsWith("b"))
	if second.Seq != 2 {
		t.Fatalf("Expected batch 2, got %d", second.Seq)
	}
	if n := memhost.Count(second.Mutations, structural...); n != 0 {
		t.Errorf("Expected an in-place update, got %d structural mutations:\n%s", n, memhost.FormatLog(second.Mutations))
	}
	if memhost.Count(second.Mutations, memhost.OpSetText) != 1 {
		t.Errorf("Expected one text update:\n%s", memhost.FormatLog(second.Mutations))
	}

	var tree Tree
	if err := json.Unmarshal(get(t, ts, "/tree"), &tree); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tree.Markup, "<ul><li>b</li></ul>") {
		t.Errorf("Unexpected markup %q", tree.Markup)
	}
	if tree.Instances != 1 {
		t.Errorf("Expected 1 instance, got %d", tree.Instances)
	}
	li := tree.Root.Children[0].Children[0]
	if li.Tag != "li" || li.Component != "Item" {
		t.Errorf("Expected li owned by Item, got %q %q", li.Tag, li.Component)
	}
}

func TestTreeMarkup(t *testing.T) {
	ts := start(t, New(nil))
	renderOK(t, ts, `{"tag": "p", "attrs": {"class": "x"}, "children": ["hi"]}`)

	out := string(get(t, ts, "/tree?format=markup"))
	if !strings.Contains(out, `<p class="x">`) || !strings.Contains(out, "hi") {
		t.Errorf("Unexpected markup:\n%s", out)
	}
}

func TestRenderYAML(t *testing.T) {
	ts := start(t, New(nil))

	resp, data := post(t, ts, "application/yaml", "tag: section\nchildren: [text]\n")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, data)
	}
	var tree Tree
	if err := json.Unmarshal(get(t, ts, "/tree"), &tree); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(tree.Markup, "<section>text</section>") {
		t.Errorf("Unexpected markup %q", tree.Markup)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		status   int
	}{
		{"invalid document", `{"tag": "p", "text": "x"}`, "A003", http.StatusBadRequest},
		{"malformed json", `{"tag": `, "A003", http.StatusBadRequest},
		{"unknown component", `{"component": "Missing"}`, "A004", http.StatusBadRequest},
		{
			"render failure",
			`{"components": {"Bad": {"render": {"tag": "p", "children": ["{{a..b}}"]}}}, "root": {"component": "Bad"}}`,
			"A001", http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := start(t, New(nil))
			resp, data := post(t, ts, "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, resp.StatusCode, data)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(data, &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, body.Error.Code)
			}
		})
	}
}

func TestMutationsSince(t *testing.T) {
	ts := start(t, New(nil))
	renderOK(t, ts, itemsWith("a"))
	renderOK(t, ts, itemsWith("b"))

	var batches []Batch
	if err := json.Unmarshal(get(t, ts, "/mutations?since=1"), &batches); err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].Seq != 2 {
		t.Fatalf("Expected only batch 2, got %+v", batches)
	}

	text := string(get(t, ts, "/mutations?format=text"))
	if !strings.Contains(text, "# 1 render") || !strings.Contains(text, `text #`) {
		t.Errorf("Unexpected text log:\n%s", text)
	}

	resp, err := http.Get(ts.URL + "/mutations?since=x")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad since, got %d", resp.StatusCode)
	}
}

func TestHistoryLimit(t *testing.T) {
	s := New(nil, WithHistory(1))
	ts := start(t, s)
	renderOK(t, ts, itemsWith("a"))
	renderOK(t, ts, itemsWith("b"))

	batches := s.Batches(0)
	if len(batches) != 1 || batches[0].Seq != 2 {
		t.Fatalf("Expected only the latest batch, got %+v", batches)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := start(t, New(nil))
	renderOK(t, ts, itemsWith("a"))

	out := string(get(t, ts, "/metrics"))
	for _, want := range []string{
		`ango_renders_total{component="Item"} 1`,
		`ango_mounts_total{component="Item"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	}
}

func TestDeferredFlushCommitsBatch(t *testing.T) {
	var inst *render.Instance
	counter := render.Define(render.Spec{
		Name: "Counter",
		State: func(*render.Instance) map[string]any {
			return map[string]any{"n": 0}
		},
		DidMount: func(c *render.Instance) { inst = c },
		Render: func(c *render.Instance) *vdom.VNode {
			return vdom.Span(vdom.Textf("%v", c.State().Get("n")))
		},
	})
	s := New(nil, WithRegistry(doc.NewRegistry(counter)))
	ts := start(t, s)
	renderOK(t, ts, `{"component": "Counter"}`)

	err := s.loop.Call(context.Background(), func() {
		inst.SetState(map[string]any{"n": 1}, nil)
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	batches := s.Batches(1)
	if len(batches) != 1 || batches[0].Source != "flush" {
		t.Fatalf("Expected one flush batch, got %+v", batches)
	}
	if memhost.Count(batches[0].Mutations, memhost.OpSetText) != 1 {
		t.Errorf("Expected one text update:\n%s", memhost.FormatLog(batches[0].Mutations))
	}

	var tree Tree
	if err := json.Unmarshal(get(t, ts, "/tree"), &tree); err != nil {
		t.Fatal(err)
	}
	span := tree.Root.Children[0]
	state, _ := span.State.(map[string]any)
	if span.Component != "Counter" || state["n"] != float64(1) {
		t.Errorf("Expected Counter with n=1, got %q %v", span.Component, span.State)
	}
}

func TestWebsocketStream(t *testing.T) {
	s := New(nil)
	ts := start(t, s)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.stream.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected the client to register")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sent := renderOK(t, ts, itemsWith("a"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var got Batch
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Seq != sent.Seq || len(got.Mutations) != len(sent.Mutations) {
		t.Errorf("Expected streamed batch %d with %d mutations, got %d with %d",
			sent.Seq, len(sent.Mutations), got.Seq, len(got.Mutations))
	}
}

func TestLoopStopped(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	cancel()
	<-done

	d, err := doc.Decode([]byte(`{"tag": "p"}`), doc.JSON)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Render(context.Background(), d); err == nil {
		t.Fatal("Expected an error once the loop stopped")
	}
}
