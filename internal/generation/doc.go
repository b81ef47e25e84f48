// Package generation defines the boundary between the textbook pipeline and
// the external AI/LLM services that write chapter content. The Generator
// interface is implemented by the Gemini and OpenAI adapters under
// internal/platform; RawChapter is the loosely structured result they return
// and Normalize turns it into domain.ChapterContent with every field set.
package generation
