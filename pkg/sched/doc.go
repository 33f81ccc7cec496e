// Package sched batches dirty work into deferred, ordered flushes.
//
// A Scheduler holds a queue of Jobs deduplicated by id. The first Enqueue of
// a cycle asks the Deferrer to run Flush later; every further Enqueue in the
// same cycle only joins the queue. Flush runs jobs in ascending id order.
// Because ids follow creation order, a parent component always runs before
// the children it created.
//
// Jobs may enqueue more jobs (or themselves) while the queue is flushing;
// those are inserted at their sorted position after the cursor and run in
// the same flush.
//
// Deferrers decide when the flush happens:
//
//	Manual  - tests drain it explicitly
//	Loop    - a single goroutine executes posted tasks in order
package sched
