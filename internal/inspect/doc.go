// Package inspect serves a live tree over HTTP.
//
// A Server owns one in-memory host document and one renderer. Every access
// to them runs on a single sched.Loop goroutine, so HTTP handlers never
// touch the tree directly:
//
//	GET  /tree       the live tree as JSON, or markup with ?format=markup
//	GET  /mutations  committed mutation batches, ?since=<seq>
//	POST /render     reconcile a posted JSON or YAML tree document
//	GET  /metrics    Prometheus metrics of the renderer
//	GET  /ws         websocket stream of mutation batches
//
// Each render request and each deferred flush that changed the tree
// commits one Batch.
package inspect
