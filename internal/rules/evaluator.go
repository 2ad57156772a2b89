package rules

import (
	"path"
	"strings"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/model"
)

// Rule is a single independent check.
type Rule interface {
	// Name returns the rule name for logging.
	Name() string

	// Check returns the violations of doc. entry is nil for pages without
	// a page config entry.
	Check(doc *model.PageDocument, entry *model.PageConfigEntry) []model.Violation
}

// Evaluator runs every registered rule over a page.
// An Evaluator is immutable after construction and safe for concurrent use.
type Evaluator struct {
	rules []Rule

	strict       bool
	ampIndexPage string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStrict turns a missing canonical link into an ERROR.
func WithStrict(strict bool) Option {
	return func(e *Evaluator) {
		e.strict = strict
	}
}

// WithAMPIndexPage designates the page that is allowed to declare an AMP
// canonical URL. relPath is relative to the scan root.
func WithAMPIndexPage(relPath string) Option {
	return func(e *Evaluator) {
		e.ampIndexPage = cleanRelPath(relPath)
	}
}

// NewEvaluator creates an Evaluator that checks canonical links against
// the origin of n.
func NewEvaluator(n *canonical.Normalizer, opts ...Option) *Evaluator {
	if n == nil {
		n = canonical.NewNormalizer("")
	}
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}

	e.rules = []Rule{
		&headingRule{},
		&canonicalRule{
			host:         n.Host(),
			strict:       e.strict,
			ampIndexPage: e.ampIndexPage,
		},
		&schemaRule{},
		&parseErrorRule{},
	}
	return e
}

// Rules returns the names of the registered rules in evaluation order.
func (e *Evaluator) Rules() []string {
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name())
	}
	return names
}

// Strict reports whether strict mode is on.
func (e *Evaluator) Strict() bool {
	return e.strict
}

// Evaluate returns every violation of doc. entry may be nil.
func (e *Evaluator) Evaluate(doc *model.PageDocument, entry *model.PageConfigEntry) []model.Violation {
	if doc == nil {
		return nil
	}
	var violations []model.Violation
	for _, r := range e.rules {
		violations = append(violations, r.Check(doc, entry)...)
	}
	return violations
}

func cleanRelPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
