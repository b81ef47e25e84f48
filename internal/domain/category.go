package domain

// Category identifies the kind of textbook being generated. The set is fixed;
// generators tailor vocabulary and difficulty to it.
type Category string

// Supported textbook categories.
const (
	CategoryJLPTN5       Category = "JLPT_N5"
	CategoryJLPTN4       Category = "JLPT_N4"
	CategoryJLPTN3       Category = "JLPT_N3"
	CategoryJLPTN2       Category = "JLPT_N2"
	CategoryJLPTN1       Category = "JLPT_N1"
	CategorySSW1         Category = "SSW1"
	CategorySSW2         Category = "SSW2"
	CategoryBusiness     Category = "BUSINESS"
	CategoryConversation Category = "CONVERSATION"
)

var supportedCategories = []Category{
	CategoryJLPTN5,
	CategoryJLPTN4,
	CategoryJLPTN3,
	CategoryJLPTN2,
	CategoryJLPTN1,
	CategorySSW1,
	CategorySSW2,
	CategoryBusiness,
	CategoryConversation,
}

// SupportedCategories returns the categories a textbook may be generated for,
// in display order. The returned slice is a copy.
func SupportedCategories() []Category {
	out := make([]Category, len(supportedCategories))
	copy(out, supportedCategories)
	return out
}

// IsValid reports whether c is one of the supported categories.
func (c Category) IsValid() bool {
	for _, supported := range supportedCategories {
		if c == supported {
			return true
		}
	}
	return false
}
