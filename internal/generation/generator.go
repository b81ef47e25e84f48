package generation

import (
	"context"

	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// Params are the inputs for generating one chapter of a textbook.
type Params struct {
	Category      domain.Category
	TargetParams  map[string]any
	ChapterNumber int
	TotalChapters int
	Options       domain.GenerationOptions
}

// Generator defines the interface for generating textbook chapters.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// Generate produces the content of a single chapter.
	//
	// Implementations may return a RawChapter with any field missing; callers
	// normalize the result. A nil chapter with a nil error is treated as a
	// failure by callers.
	Generate(ctx context.Context, params Params) (*RawChapter, error)
}
