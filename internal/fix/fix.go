// Package fix rewrites the fixable problems of a page: a malformed
// canonical href and duplicate H1 headings.
//
// The Fixer works on byte spans recorded by package extract and only ever
// replaces the affected attribute value or tag name. It never writes files
// and never inserts a canonical link that is not already there. Applying it
// to its own output changes nothing.
package fix

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/model"
)

// hrefAttr matches the href attribute of a single tag. Group 1 is the
// value including any quotes.
var hrefAttr = regexp.MustCompile(`(?is)\shref\s*=\s*("[^"]*"|'[^']*'|[^\s"'>]+)`)

// Result is the outcome of applying fixes to one page.
type Result struct {
	// NewContent is the rewritten content, or the original content when
	// nothing changed.
	NewContent string

	// Changed is true when NewContent differs from the original.
	Changed bool

	// CanonicalStatus describes the canonical link after fixing.
	CanonicalStatus model.CanonicalStatus

	// Applied lists the categories that were fixed.
	Applied []model.Category
}

// edit replaces content[start:end] with text.
type edit struct {
	start int
	end   int
	text  string
}

// Fixer applies idempotent in-place fixes.
// A Fixer is immutable and safe for concurrent use.
type Fixer struct {
	normalizer *canonical.Normalizer
}

// NewFixer creates a Fixer that rewrites canonical links to the output of n.
func NewFixer(n *canonical.Normalizer) *Fixer {
	if n == nil {
		n = canonical.NewNormalizer("")
	}
	return &Fixer{normalizer: n}
}

// Apply returns the fixed content of doc. Only problems named in
// violations are fixed.
func (f *Fixer) Apply(doc *model.PageDocument, violations []model.Violation) Result {
	if doc == nil {
		return Result{}
	}

	content := doc.RawContent
	res := Result{NewContent: content}

	var edits []edit

	canonicalEdit, status, canonicalCats := f.fixCanonical(doc, violations)
	res.CanonicalStatus = status
	if canonicalEdit != nil {
		edits = append(edits, *canonicalEdit)
		res.Applied = append(res.Applied, canonicalCats...)
	}

	if hasCategory(violations, model.CategoryDuplicateH1) {
		if headingEdits := demoteDuplicateH1(content, doc.Headings); len(headingEdits) > 0 {
			edits = append(edits, headingEdits...)
			res.Applied = append(res.Applied, model.CategoryDuplicateH1)
		}
	}

	if len(edits) == 0 {
		return res
	}

	newContent := applyEdits(content, edits)
	if newContent == content {
		res.Applied = nil
		if res.CanonicalStatus == model.CanonicalFixed {
			res.CanonicalStatus = model.CanonicalAlreadyCorrect
		}
		return res
	}
	res.NewContent = newContent
	res.Changed = true
	return res
}

// fixCanonical returns the edit that rewrites the canonical href, the
// resulting status and the categories the edit fixes.
func (f *Fixer) fixCanonical(doc *model.PageDocument, violations []model.Violation) (*edit, model.CanonicalStatus, []model.Category) {
	if doc.CanonicalURL == nil {
		return nil, model.CanonicalMissing, nil
	}

	expected := f.normalizer.Normalize(doc.RelativePath)
	if *doc.CanonicalURL == expected {
		return nil, model.CanonicalAlreadyCorrect, nil
	}

	var cats []model.Category
	seen := make(map[model.Category]bool)
	for _, v := range violations {
		if v.Category.IsCanonicalFormat() && !seen[v.Category] {
			seen[v.Category] = true
			cats = append(cats, v.Category)
		}
	}
	if len(cats) == 0 {
		// Well formed but pointing elsewhere: leave it to the author.
		return nil, model.CanonicalMismatch, nil
	}

	span := doc.CanonicalSpan
	if !span.Valid() || span.End > len(doc.RawContent) {
		return nil, model.CanonicalMismatch, nil
	}
	tag := doc.RawContent[span.Start:span.End]
	loc := hrefAttr.FindStringSubmatchIndex(tag)
	if loc == nil {
		return nil, model.CanonicalMismatch, nil
	}

	valueStart, valueEnd := loc[2], loc[3]
	value := tag[valueStart:valueEnd]
	if strings.HasPrefix(value, `"`) || strings.HasPrefix(value, `'`) {
		valueStart++
		valueEnd--
	}

	return &edit{
		start: span.Start + valueStart,
		end:   span.Start + valueEnd,
		text:  html.EscapeString(expected),
	}, model.CanonicalFixed, cats
}

// demoteDuplicateH1 renames the start and end tags of every H1 after the
// first to H2. The letter case of the tag name is kept.
func demoteDuplicateH1(content string, headings []model.HeadingNode) []edit {
	var edits []edit
	first := true
	for _, h := range headings {
		if h.Level != 1 {
			continue
		}
		if first {
			first = false
			continue
		}
		// "<h1" and "</h1": the tag name follows one or two bytes.
		if e, ok := renameTag(content, h.StartTag, 1); ok {
			edits = append(edits, e)
		}
		if e, ok := renameTag(content, h.EndTag, 2); ok {
			edits = append(edits, e)
		}
	}
	return edits
}

// renameTag returns an edit turning the "h1" at span.Start+skip into "h2".
func renameTag(content string, span model.Span, skip int) (edit, bool) {
	if !span.Valid() {
		return edit{}, false
	}
	start := span.Start + skip
	end := start + 2
	if end > span.End || end > len(content) {
		return edit{}, false
	}
	name := content[start:end]
	if !strings.EqualFold(name, "h1") {
		return edit{}, false
	}
	return edit{start: start, end: end, text: name[:1] + "2"}, true
}

// applyEdits applies non-overlapping edits back to front so earlier
// offsets stay valid.
func applyEdits(content string, edits []edit) string {
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].start > edits[j].start
	})
	for _, e := range edits {
		content = content[:e.start] + e.text + content[e.end:]
	}
	return content
}

func hasCategory(violations []model.Violation, c model.Category) bool {
	for _, v := range violations {
		if v.Category == c {
			return true
		}
	}
	return false
}
