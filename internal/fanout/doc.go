// Package fanout turns persisted chapters into best-effort audio work items.
//
// Fan-out never fails the caller: every item is enqueued independently and
// failures are only logged and counted.
package fanout
