package render

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vango-dev/ango/pkg/reactive"
)

var (
	// ErrNilContainer is returned when Mount is called without a container.
	ErrNilContainer = errors.New("render: nil container")

	// ErrUnmounted is returned when an operation needs a mounted instance.
	ErrUnmounted = errors.New("render: instance is not mounted")

	// ErrUnknownType is returned when a component vnode refers to a type
	// that was not created by Define or Func.
	ErrUnknownType = errors.New("render: unknown component type")

	// ErrNotRoot is returned by Unmount for nodes the renderer does not own.
	ErrNotRoot = errors.New("render: node is not a rendered root")
)

// RenderError reports a failure inside a component's render function or
// lifecycle method.
type RenderError struct {
	// Component is the component's name.
	Component string

	// Phase is the instance's lifecycle phase when the failure happened.
	Phase Phase

	// Method names the failing function, e.g. "Render" or "WillMount".
	Method string

	// Err is the underlying error. Recovered panics are *reactive.PanicError.
	Err error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %s.%s (%s): %v", e.Component, e.Method, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// wrapError wraps err unless it already is a RenderError.
func wrapError(c *Instance, method string, err error) error {
	if err == nil {
		return nil
	}
	var re *RenderError
	if errors.As(err, &re) {
		return err
	}
	return &RenderError{Component: c.Name(), Phase: c.phase, Method: method, Err: err}
}

func newPanicError(v any) *reactive.PanicError {
	return &reactive.PanicError{Value: v, Stack: debug.Stack()}
}
