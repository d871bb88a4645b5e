// Package task runs the background side of the explainer: a Poller that
// repeatedly scans the job registry for pending jobs and processes each one
// as an ExplanationTask on a bounded WorkerPool.
//
// Processing is at-least-once. A job leaves the pending state only through
// the registry's MarkDone, which is called after the result artifact has
// been written; a job whose processing fails is logged and picked up again
// on a later cycle.
package task
