// Package mocks provides centralized mock implementations for testing.
//
// Store mocks share a MemoryDB so that a test can drive the generation loop
// and then poll status through the same data. Every method has a function
// field that, when set, replaces the in-memory behavior:
//
//	db := mocks.NewMemoryDB()
//	chapters := &mocks.MockChapterStore{
//	    DB: db,
//	    CreateFn: func(ctx context.Context, c *domain.Chapter) error {
//	        return errors.New("disk full")
//	    },
//	}
package mocks
