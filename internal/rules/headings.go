package rules

import (
	"fmt"

	"github.com/nao1215/sitelint/internal/model"
)

// headingRule checks heading monotonicity.
//
// A heading may start at any level but may never go deeper by more than one
// level than the previous heading. Every H1 after the first is a duplicate.
// An H4 or deeper heading needs a heading one level up somewhere before it.
type headingRule struct{}

func (r *headingRule) Name() string {
	return "headings"
}

func (r *headingRule) Check(doc *model.PageDocument, _ *model.PageConfigEntry) []model.Violation {
	var violations []model.Violation

	var seen [7]bool
	previous := 0
	h1Count := 0

	for _, h := range doc.Headings {
		if h.Level < 1 || h.Level > 6 {
			continue
		}

		if h.Level == 1 {
			h1Count++
			if h1Count > 1 {
				violations = append(violations, model.NewViolation(doc.RelativePath,
					model.CategoryDuplicateH1,
					fmt.Sprintf("h1 #%d %q at offset %d", h1Count, h.Text, h.SourceOffset)))
			}
		}

		if previous > 0 && h.Level > previous+1 {
			violations = append(violations, model.NewViolation(doc.RelativePath,
				model.CategorySkippedHeadingLevel,
				fmt.Sprintf("h%d -> h%d %q at offset %d", previous, h.Level, h.Text, h.SourceOffset)))
		}

		if h.Level >= 4 && !seen[h.Level-1] {
			violations = append(violations, model.NewViolation(doc.RelativePath,
				model.CategoryOrphanedHeading,
				fmt.Sprintf("h%d %q has no preceding h%d", h.Level, h.Text, h.Level-1)))
		}

		seen[h.Level] = true
		previous = h.Level
	}

	return violations
}
