// Package api handles incoming HTTP requests for textbooks: routing,
// request decoding and validation, and translating service errors into
// status codes and safe response bodies.
package api
