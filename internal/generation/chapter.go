package generation

import (
	"strings"

	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// RawChapter is the chapter structure as decoded from a generator response.
// Every field is optional: pointers and nil slices mark what the model left out.
type RawChapter struct {
	Title                    *string           `json:"title,omitempty"`
	Summary                  *string           `json:"summary,omitempty"`
	Objectives               []string          `json:"objectives,omitempty"`
	Sections                 []RawSection      `json:"sections,omitempty"`
	Vocabulary               []RawVocabulary   `json:"vocabulary,omitempty"`
	Examples                 []RawExample      `json:"examples,omitempty"`
	Exercises                []RawExercise     `json:"exercises,omitempty"`
	CulturalNotes            []RawCulturalNote `json:"cultural_notes,omitempty"`
	EstimatedDurationMinutes *int              `json:"estimated_duration_minutes,omitempty"`
}

// RawSection is a section as returned by the generator.
type RawSection struct {
	Heading *string `json:"heading,omitempty"`
	Body    *string `json:"body,omitempty"`
}

// RawVocabulary is a vocabulary entry as returned by the generator.
type RawVocabulary struct {
	Term         *string `json:"term,omitempty"`
	Reading      *string `json:"reading,omitempty"`
	Meaning      *string `json:"meaning,omitempty"`
	PartOfSpeech *string `json:"part_of_speech,omitempty"`
}

// RawExample is an example sentence as returned by the generator.
type RawExample struct {
	Japanese    *string `json:"japanese,omitempty"`
	Reading     *string `json:"reading,omitempty"`
	Translation *string `json:"translation,omitempty"`
}

// RawExercise is an exercise as returned by the generator.
type RawExercise struct {
	Type        *string  `json:"type,omitempty"`
	Prompt      *string  `json:"prompt,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Answer      *string  `json:"answer,omitempty"`
	Explanation *string  `json:"explanation,omitempty"`
}

// RawCulturalNote is a cultural note as returned by the generator.
type RawCulturalNote struct {
	Topic *string `json:"topic,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// IsEmpty reports whether the chapter carries no content at all.
func (r *RawChapter) IsEmpty() bool {
	if r == nil {
		return true
	}

	return str(r.Title) == "" &&
		str(r.Summary) == "" &&
		len(r.Objectives) == 0 &&
		len(r.Sections) == 0 &&
		len(r.Vocabulary) == 0 &&
		len(r.Examples) == 0 &&
		len(r.Exercises) == 0 &&
		len(r.CulturalNotes) == 0
}

// Normalize converts the raw chapter into domain content with every optional
// field defaulted. A missing title becomes "Chapter {n}" and a missing or
// non-positive duration becomes domain.DefaultChapterMinutes. Entries whose
// primary text is blank are dropped.
func (r *RawChapter) Normalize(chapterNumber int) domain.ChapterContent {
	if r == nil {
		r = &RawChapter{}
	}

	content := domain.ChapterContent{
		Title:                    str(r.Title),
		Summary:                  str(r.Summary),
		Objectives:               make([]string, 0, len(r.Objectives)),
		Sections:                 make([]domain.Section, 0, len(r.Sections)),
		Vocabulary:               make([]domain.VocabularyItem, 0, len(r.Vocabulary)),
		Examples:                 make([]domain.Example, 0, len(r.Examples)),
		Exercises:                make([]domain.Exercise, 0, len(r.Exercises)),
		CulturalNotes:            make([]domain.CulturalNote, 0, len(r.CulturalNotes)),
		EstimatedDurationMinutes: domain.DefaultChapterMinutes,
	}

	if content.Title == "" {
		content.Title = domain.PlaceholderChapterTitle(chapterNumber)
	}

	if r.EstimatedDurationMinutes != nil && *r.EstimatedDurationMinutes > 0 {
		content.EstimatedDurationMinutes = *r.EstimatedDurationMinutes
	}

	for _, objective := range r.Objectives {
		if objective = strings.TrimSpace(objective); objective != "" {
			content.Objectives = append(content.Objectives, objective)
		}
	}

	for _, s := range r.Sections {
		if str(s.Heading) == "" && str(s.Body) == "" {
			continue
		}
		content.Sections = append(content.Sections, domain.Section{
			Heading: str(s.Heading),
			Body:    str(s.Body),
		})
	}

	for _, v := range r.Vocabulary {
		if str(v.Term) == "" {
			continue
		}
		content.Vocabulary = append(content.Vocabulary, domain.VocabularyItem{
			Term:         str(v.Term),
			Reading:      str(v.Reading),
			Meaning:      str(v.Meaning),
			PartOfSpeech: str(v.PartOfSpeech),
		})
	}

	for _, e := range r.Examples {
		if str(e.Japanese) == "" {
			continue
		}
		content.Examples = append(content.Examples, domain.Example{
			Japanese:    str(e.Japanese),
			Reading:     str(e.Reading),
			Translation: str(e.Translation),
		})
	}

	for _, x := range r.Exercises {
		if str(x.Prompt) == "" {
			continue
		}
		choices := make([]string, 0, len(x.Choices))
		choices = append(choices, x.Choices...)
		content.Exercises = append(content.Exercises, domain.Exercise{
			Type:        str(x.Type),
			Prompt:      str(x.Prompt),
			Choices:     choices,
			Answer:      str(x.Answer),
			Explanation: str(x.Explanation),
		})
	}

	for _, n := range r.CulturalNotes {
		if str(n.Topic) == "" && str(n.Body) == "" {
			continue
		}
		content.CulturalNotes = append(content.CulturalNotes, domain.CulturalNote{
			Topic: str(n.Topic),
			Body:  str(n.Body),
		})
	}

	return content
}

// str dereferences an optional string, trimming surrounding whitespace.
func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
