package generation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/chapter_prompt.tmpl
var templateFS embed.FS

const defaultTemplateName = "templates/chapter_prompt.tmpl"

// promptData is the data passed to the chapter prompt template.
type promptData struct {
	Category      string
	ChapterNumber int
	TotalChapters int
	TargetParams  map[string]any
	Options       struct {
		IncludeExercises     bool
		IncludeCulturalNotes bool
	}
}

// LoadPromptTemplate parses the chapter prompt template at path, or the
// built-in template when path is empty.
func LoadPromptTemplate(path string) (*template.Template, error) {
	if path == "" {
		tmpl, err := template.ParseFS(templateFS, defaultTemplateName)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse built-in prompt template: %v", ErrInvalidConfig, err)
		}
		return tmpl, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v", ErrInvalidConfig, path, err)
	}

	tmpl, err := template.New("chapter").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	return tmpl, nil
}

// RenderPrompt executes the prompt template for one chapter.
func RenderPrompt(tmpl *template.Template, params Params) (string, error) {
	if params.ChapterNumber < 1 {
		return "", fmt.Errorf("%w: chapter number must be positive", ErrGenerationFailed)
	}

	data := promptData{
		Category:      string(params.Category),
		ChapterNumber: params.ChapterNumber,
		TotalChapters: params.TotalChapters,
		TargetParams:  params.TargetParams,
	}
	data.Options.IncludeExercises = params.Options.IncludeExercises
	data.Options.IncludeCulturalNotes = params.Options.IncludeCulturalNotes

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// DecodeChapter parses a model response into a RawChapter. Markdown code
// fences around the JSON are tolerated. An empty or content-free response is
// reported as ErrEmptyResult.
func DecodeChapter(text string) (*RawChapter, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("%w: empty response body", ErrEmptyResult)
	}

	var chapter RawChapter
	if err := json.Unmarshal([]byte(text), &chapter); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", ErrInvalidResponse, err)
	}

	if chapter.IsEmpty() {
		return nil, ErrEmptyResult
	}

	return &chapter, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the language tag line ("```json")
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
