package model

// Violation is a single rule failure on a page.
// Violations are created by the rule evaluator and never mutated.
type Violation struct {
	// File is the relative path of the page.
	File string `json:"file"`

	// Category identifies the rule.
	Category Category `json:"category"`

	// Detail carries the rule specific value, e.g. the missing schema
	// type or the offending canonical URL.
	Detail string `json:"detail"`

	// Severity is ERROR or WARNING.
	Severity Severity `json:"severity"`
}

// NewViolation creates a violation with the category's default severity.
func NewViolation(file string, category Category, detail string) Violation {
	return Violation{
		File:     file,
		Category: category,
		Detail:   detail,
		Severity: GetSeverity(category),
	}
}

// Title returns the human-readable title of the violation's category.
func (v Violation) Title() string {
	return GetCategoryInfo(v.Category).Title
}

// Key identifies a violation across runs for comparison purposes.
func (v Violation) Key() string {
	return v.File + "|" + string(v.Category) + "|" + v.Detail
}

// CountBySeverity returns the number of errors and warnings in vs.
func CountBySeverity(vs []Violation) (errors, warnings int) {
	for _, v := range vs {
		if v.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}
