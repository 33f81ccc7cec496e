package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vango-dev/ango/internal/config"
	"github.com/vango-dev/ango/pkg/doc"
	"github.com/vango-dev/ango/pkg/host/memhost"
	"github.com/vango-dev/ango/pkg/render"
	"github.com/vango-dev/ango/pkg/sched"
	"github.com/vango-dev/ango/pkg/vdom"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"render", CodeRender, "Component render failed", CategoryRender},
		{"document", CodeInvalidDocument, "Invalid tree document", CategoryDocument},
		{"config", CodeInvalidConfig, "Invalid configuration", CategoryConfig},
		{"unknown code", "A999", "Unknown error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New(CodeIO)
	if got, want := err.Error(), "A006: File access failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := New(CodeIO).Wrap(os.ErrNotExist)
	if got, want := wrapped.Error(), "A006: File access failed: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(wrapped, os.ErrNotExist) {
		t.Error("Expected Unwrap to expose the wrapped error")
	}

	uncoded := Newf(CategoryIO, "file %q missing", "a.yaml")
	if got, want := uncoded.Error(), `file "a.yaml" missing`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeIO) != nil {
		t.Error("Expected nil for a nil error")
	}
	base := New(CodeRender)
	if got := FromError(fmt.Errorf("context: %w", base), CodeIO); got != base {
		t.Error("Expected an existing Error to be returned as is")
	}
	if got := FromError(stderrors.New("x"), CodeIO); got.Code != CodeIO {
		t.Errorf("Code = %q, want %q", got.Code, CodeIO)
	}
}

func renderError(t *testing.T) error {
	t.Helper()
	broken := render.Define(render.Spec{
		Name:   "Broken",
		Render: func(*render.Instance) *vdom.VNode { panic("boom") },
	})
	d := memhost.New()
	r := render.New(d)
	_, err := r.Mount(context.Background(), vdom.H(broken, nil), d.Container("body"), nil)
	if err == nil {
		t.Fatal("Expected a render error")
	}
	return err
}

func TestClassify(t *testing.T) {
	_, docErr := doc.Decode([]byte(`{"tag": "p", "text": "x"}`), doc.JSON)
	d, _ := doc.Decode([]byte(`{"component": "Nope"}`), doc.JSON)
	_, unknownErr := d.Build(doc.NewRegistry())

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"render", renderError(t), CodeRender},
		{"update loop", fmt.Errorf("flush: %w", sched.ErrInfiniteUpdate), CodeUpdateLoop},
		{"document", docErr, CodeInvalidDocument},
		{"unknown component", unknownErr, CodeUnknownComponent},
		{"config", fmt.Errorf("%w: bad", config.ErrInvalid), CodeInvalidConfig},
		{"missing file", os.ErrNotExist, CodeIO},
		{"other", stderrors.New("plain"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "")
			if got.Code != tt.want {
				t.Errorf("Code = %q, want %q (%v)", got.Code, tt.want, tt.err)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("Expected the classified error to wrap the original")
			}
		})
	}

	if Classify(nil, "") != nil {
		t.Error("Expected nil for a nil error")
	}
}

func TestClassifyRenderDetail(t *testing.T) {
	got := Classify(renderError(t), "")
	if !strings.Contains(got.Detail, "Broken failed in Render while mounting") {
		t.Errorf("Unexpected detail %q", got.Detail)
	}
}

func TestClassifyDocumentLocation(t *testing.T) {
	src := "tag: div\nchildren:\n  - tag: p\n    text: x\n"
	path := filepath.Join(t.TempDir(), "tree.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := doc.DecodeFile(path)

	got := Classify(err, path)
	if got.Location == nil || got.Location.Line != 3 || got.Location.Column != 5 {
		t.Fatalf("Expected location line 3 column 5, got %v", got.Location)
	}
	if len(got.Context) != 4 {
		t.Errorf("Expected 4 context lines, got %d", len(got.Context))
	}

	DisableColors()
	defer EnableColors()
	formatted := got.Format()
	for _, want := range []string{
		"ERROR A003: Invalid tree document",
		path + ":3:5",
		"→    3 │   - tag: p",
		"Hint: Every node needs exactly one of tag, component or text.",
		"Cause: ",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format should contain %q:\n%s", want, formatted)
		}
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{nil, ""},
		{&Location{File: "a.yaml"}, "a.yaml"},
		{&Location{File: "a.yaml", Line: 3}, "a.yaml:3"},
		{&Location{File: "a.yaml", Line: 3, Column: 7}, "a.yaml:3:7"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeInvalidDocument)
	err.Location = &Location{File: "tree.json"}
	if got, want := err.FormatCompact(), "tree.json: A003: Invalid tree document"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeUnknownComponent).Wrap(stderrors.New("Nope"))
	err.Location = &Location{File: "tree.json", Line: 2}

	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("Marshal failed: %v", mErr)
	}
	var got map[string]any
	if uErr := json.Unmarshal(data, &got); uErr != nil {
		t.Fatalf("Unmarshal failed: %v", uErr)
	}
	if got["code"] != CodeUnknownComponent || got["cause"] != "Nope" || got["category"] != "document" {
		t.Errorf("Unexpected JSON %s", data)
	}
	loc, _ := got["location"].(map[string]any)
	if loc["file"] != "tree.json" || loc["line"] != float64(2) {
		t.Errorf("Unexpected location %v", loc)
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	want := []string{"A001", "A002", "A003", "A004", "A005", "A006"}
	if strings.Join(codes, ",") != strings.Join(want, ",") {
		t.Errorf("Codes() = %v, want %v", codes, want)
	}
	for _, code := range codes {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" || tmpl.Detail == "" {
			t.Errorf("Code %s has an incomplete template", code)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("X001", Template{Category: CategoryIO, Message: "custom"})
	defer delete(registry, "X001")
	if got := New("X001").Message; got != "custom" {
		t.Errorf("Message = %q, want custom", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("Line %q is longer than 10", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("Unexpected wrap %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("Expected nil for empty text")
	}
}

func TestColors(t *testing.T) {
	EnableColors()
	if got := red("x"); got != colorRed+"x"+colorReset {
		t.Errorf("red() = %q", got)
	}
	DisableColors()
	defer EnableColors()
	if got := red("x"); got != "x" {
		t.Errorf("red() with colors disabled = %q", got)
	}
}
