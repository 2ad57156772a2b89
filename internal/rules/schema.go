package rules

import (
	"fmt"

	"github.com/nao1215/sitelint/internal/model"
)

// schemaRule checks that every required @type of a configured page is
// declared. Pages without a config entry are skipped; missing
// configuration shows up in the coverage audit instead.
type schemaRule struct{}

func (r *schemaRule) Name() string {
	return "schema"
}

func (r *schemaRule) Check(doc *model.PageDocument, entry *model.PageConfigEntry) []model.Violation {
	if entry == nil {
		return nil
	}

	var violations []model.Violation
	seen := make(map[string]struct{}, len(entry.RequiredSchemaTypes))
	for _, required := range entry.RequiredSchemaTypes {
		if _, dup := seen[required]; dup {
			continue
		}
		seen[required] = struct{}{}
		if !doc.HasSchemaType(required) {
			violations = append(violations, model.NewViolation(doc.RelativePath, model.CategoryMissingSchema, required))
		}
	}
	return violations
}

// parseErrorRule forwards JSON-LD parse errors as warnings.
type parseErrorRule struct{}

func (r *parseErrorRule) Name() string {
	return "parse-errors"
}

func (r *parseErrorRule) Check(doc *model.PageDocument, _ *model.PageConfigEntry) []model.Violation {
	violations := make([]model.Violation, 0, len(doc.SchemaParseErrors))
	for _, pe := range doc.SchemaParseErrors {
		violations = append(violations, model.NewViolation(doc.RelativePath,
			model.CategorySchemaParseError,
			fmt.Sprintf("offset %d: %s", pe.Offset, pe.Message)))
	}
	return violations
}
