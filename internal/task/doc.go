// Package task runs background work for the API process. Asynchronous
// textbook submissions become tasks that a worker pool executes off the
// request path, and a sweeper closes out textbooks whose generation was
// interrupted by a process restart.
package task
