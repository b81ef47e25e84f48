// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles query execution and the mapping between domain entities and
// database records. JSON payloads (target params, generation params and
// chapter content) are stored in jsonb columns.
package postgres
