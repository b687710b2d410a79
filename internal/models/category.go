package models

import "strings"

// Category is one of a fixed set of schedule labels.
type Category string

const (
	CategoryWork          Category = "Work"
	CategoryLife          Category = "Life"
	CategoryStudy         Category = "Study"
	CategorySports        Category = "Sports"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"

	// CategoryAll is the filter sentinel meaning "do not filter by category".
	CategoryAll Category = "All"

	DefaultCategory = CategoryOther
)

// Categories lists the assignable categories in display order.
var Categories = []Category{
	CategoryWork,
	CategoryLife,
	CategoryStudy,
	CategorySports,
	CategoryEntertainment,
	CategoryOther,
}

// ParseCategory matches s case-insensitively against the known categories
// and the All sentinel.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll, true
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// IsFilter reports whether c narrows a result set.
func (c Category) IsFilter() bool {
	return c != "" && c != CategoryAll
}
