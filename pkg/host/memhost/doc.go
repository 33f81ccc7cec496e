// Package memhost is an in-memory host tree.
//
// A Document implements host.Host over plain Go structs. Every structural,
// attribute, style, property and listener mutation is appended to a log, so
// tests can assert exactly what a reconciliation pass changed, and tools can
// print or stream it. Events are delivered with Dispatch, which runs capture
// listeners from the root down and bubbling listeners back up.
//
// Elements expose a small table of typed properties (value, checked,
// disabled, ...). SetProperty rejects values of the wrong kind with
// host.ErrPropertyType, which lets renderers exercise their handling of
// host-rejected writes.
package memhost
