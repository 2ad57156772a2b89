package model

import (
	"fmt"
	"strings"
)

// Severity represents how serious a violation is.
// A page with at least one ERROR violation is classified as invalid.
type Severity int

const (
	// SeverityWarning indicates a problem that should be looked at but does
	// not make the page invalid on its own.
	SeverityWarning Severity = iota

	// SeverityError indicates a problem that makes the page invalid and
	// fails the scan when it is used as a deployment gate.
	SeverityError
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the severity as its string form so that reports
// contain "ERROR"/"WARNING" rather than integers.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity written by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "WARNING":
		*s = SeverityWarning
	case "ERROR":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}

// Category identifies the rule that produced a violation.
type Category string

// Violation categories.
const (
	CategoryMissingSchema            Category = "MissingSchema"
	CategoryDuplicateH1              Category = "DuplicateH1"
	CategorySkippedHeadingLevel      Category = "SkippedHeadingLevel"
	CategoryOrphanedHeading          Category = "OrphanedHeading"
	CategoryNonCanonicalDomain       Category = "NonCanonicalDomain"
	CategoryInsecureCanonical        Category = "InsecureCanonical"
	CategoryHTMLExtensionInCanonical Category = "HtmlExtensionInCanonical"
	CategoryAmpCanonicalMismatch     Category = "AmpCanonicalMismatch"
	CategoryMissingCanonical         Category = "MissingCanonical"
	CategorySchemaParseError         Category = "SchemaParseError"
)

// CategoryInfo contains metadata about a violation category including its
// default severity, a short title, the impact and a remediation hint.
type CategoryInfo struct {
	Severity       Severity
	Title          string
	Impact         string
	Recommendation string
}

// categoryInfoMapping is the single source of truth for category metadata.
// Rules may still override the severity (for example strict mode turns a
// missing canonical into an error).
var categoryInfoMapping = map[Category]CategoryInfo{
	CategoryMissingSchema: {
		Severity:       SeverityError,
		Title:          "Required structured data missing",
		Impact:         "Search engines cannot produce rich results for the page type declared in the page config.",
		Recommendation: "Add a JSON-LD block declaring the missing @type.",
	},
	CategoryDuplicateH1: {
		Severity:       SeverityError,
		Title:          "Duplicate H1",
		Impact:         "More than one top-level heading makes the primary topic of the page ambiguous.",
		Recommendation: "Keep a single H1 and demote the others to H2 (sitelint scan --fix).",
	},
	CategorySkippedHeadingLevel: {
		Severity:       SeverityWarning,
		Title:          "Skipped heading level",
		Impact:         "Jumping more than one level breaks the document outline for assistive technology and crawlers.",
		Recommendation: "Insert the intermediate heading level or lower the heading.",
	},
	CategoryOrphanedHeading: {
		Severity:       SeverityWarning,
		Title:          "Orphaned heading",
		Impact:         "A deep heading without any parent level earlier in the page has no place in the outline.",
		Recommendation: "Introduce the parent heading level before this heading.",
	},
	CategoryNonCanonicalDomain: {
		Severity:       SeverityError,
		Title:          "Canonical points to another host",
		Impact:         "Ranking signals are consolidated on a host that is not the site's canonical origin.",
		Recommendation: "Point the canonical link at the canonical origin (sitelint scan --fix).",
	},
	CategoryInsecureCanonical: {
		Severity:       SeverityError,
		Title:          "Canonical is not https",
		Impact:         "Search engines are told to prefer the insecure variant of the page.",
		Recommendation: "Use an https:// canonical URL (sitelint scan --fix).",
	},
	CategoryHTMLExtensionInCanonical: {
		Severity:       SeverityError,
		Title:          "Canonical contains .html",
		Impact:         "The canonical URL differs from the clean URL the site actually serves.",
		Recommendation: "Drop the .html extension from the canonical URL (sitelint scan --fix).",
	},
	CategoryAmpCanonicalMismatch: {
		Severity:       SeverityError,
		Title:          "Canonical points to an AMP path",
		Impact:         "AMP variants must canonicalize to their non-AMP counterpart.",
		Recommendation: "Point the canonical link at the non-AMP page (sitelint scan --fix).",
	},
	CategoryMissingCanonical: {
		Severity:       SeverityWarning,
		Title:          "Missing canonical link",
		Impact:         "Without a canonical link duplicate URLs may compete with each other.",
		Recommendation: "Add <link rel=\"canonical\"> pointing at the page's clean URL.",
	},
	CategorySchemaParseError: {
		Severity:       SeverityWarning,
		Title:          "Malformed structured data",
		Impact:         "A JSON-LD block could not be parsed and is ignored by search engines.",
		Recommendation: "Fix the JSON syntax of the ld+json script block.",
	},
}

// GetCategoryInfo returns the metadata for a category.
// Unknown categories get a warning-level placeholder.
func GetCategoryInfo(category Category) CategoryInfo {
	if info, ok := categoryInfoMapping[category]; ok {
		return info
	}
	return CategoryInfo{
		Severity:       SeverityWarning,
		Title:          string(category),
		Impact:         "Unknown violation category. Review manually.",
		Recommendation: "Investigate the violation and assess its impact.",
	}
}

// GetSeverity returns the default severity for a category.
func GetSeverity(category Category) Severity {
	return GetCategoryInfo(category).Severity
}

// AllCategories returns every known category in a stable display order.
func AllCategories() []Category {
	return []Category{
		CategoryMissingSchema,
		CategoryDuplicateH1,
		CategorySkippedHeadingLevel,
		CategoryOrphanedHeading,
		CategoryNonCanonicalDomain,
		CategoryInsecureCanonical,
		CategoryHTMLExtensionInCanonical,
		CategoryAmpCanonicalMismatch,
		CategoryMissingCanonical,
		CategorySchemaParseError,
	}
}

// IsCanonicalFormat reports whether the category describes a malformed
// canonical link that the fixer can rewrite.
func (c Category) IsCanonicalFormat() bool {
	switch c {
	case CategoryNonCanonicalDomain,
		CategoryInsecureCanonical,
		CategoryHTMLExtensionInCanonical,
		CategoryAmpCanonicalMismatch:
		return true
	default:
		return false
	}
}
