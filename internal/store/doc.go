// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing the generation pipeline to remain
// independent of specific database technologies or persistence details.
//
// Every write is a single atomic row operation. Textbook status changes are
// conditional on the textbook still generating, so terminal rows never change
// except for their published flag.
package store
