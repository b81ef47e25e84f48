// Package service implements the textbook generation pipeline and the read
// side used by polling clients.
//
// TextbookService drives the per-chapter generation loop. Chapters are
// generated strictly in order and the loop stops at the first failure; audio
// fan-out runs after each persisted chapter and never affects the outcome.
// StatusService reads textbooks and chapter summaries and never writes.
package service
