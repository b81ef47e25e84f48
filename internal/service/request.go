package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// SubmitTextbookOptions are the feature flags of a textbook request.
type SubmitTextbookOptions struct {
	IncludeAudio         bool `json:"include_audio"`
	IncludeExercises     bool `json:"include_exercises"`
	IncludeCulturalNotes bool `json:"include_cultural_notes"`
}

// SubmitTextbookRequest is a request to generate a textbook.
type SubmitTextbookRequest struct {
	Title         string                `json:"title" validate:"required,max=200"`
	Category      domain.Category       `json:"category" validate:"required,category"`
	TotalChapters int                   `json:"total_chapters" validate:"required,min=1,max=50"`
	Options       SubmitTextbookOptions `json:"options"`
	TargetParams  map[string]any        `json:"target_params"`
}

// newRequestValidator returns a validator that knows the category rule and
// reports fields by their JSON names.
func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// RegisterValidation only fails for empty tags or builtin collisions.
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).IsValid()
	})

	return v
}

// validateRequest normalizes req in place and validates it.
func validateRequest(v *validator.Validate, req *SubmitTextbookRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = domain.Category(strings.TrimSpace(string(req.Category)))

	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &ValidationError{Fields: []FieldError{{Field: "request", Message: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "total_chapters" {
			return "must be between 1 and 50"
		}
		return "is required"
	case "min", "max":
		if fe.Field() == "title" {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be between 1 and 50"
	case "category":
		return "must be one of " + supportedCategoryList()
	default:
		return "is invalid"
	}
}

func supportedCategoryList() string {
	categories := domain.SupportedCategories()
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
