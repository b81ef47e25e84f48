// Package events decouples the services that request background work from
// the task runner that performs it.
//
// A service emits a TaskRequestEvent; handlers registered on the emitter
// turn it into a task. Neither side imports the other.
package events
