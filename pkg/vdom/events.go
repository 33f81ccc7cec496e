package vdom

import "strings"

// EventHandler is an event listener passed to the element helpers.
type EventHandler struct {
	Event   string // "onclick", "oninput", ...
	Handler any    // func(host.Event) or func()
}

func event(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// On handles an arbitrary event by name.
func On(name string, handler any) EventHandler { return event(strings.ToLower(name), handler) }

// Capture returns a copy of h listening in the capture phase.
func Capture(h EventHandler) EventHandler {
	return EventHandler{Event: h.Event + "Capture", Handler: h.Handler}
}

// OnClick handles click events.
func OnClick(handler any) EventHandler { return event("click", handler) }

// OnInput handles input events.
func OnInput(handler any) EventHandler { return event("input", handler) }

// OnChange handles change events.
func OnChange(handler any) EventHandler { return event("change", handler) }

// OnSubmit handles form submit events.
func OnSubmit(handler any) EventHandler { return event("submit", handler) }

// OnKeyDown handles keydown events.
func OnKeyDown(handler any) EventHandler { return event("keydown", handler) }
