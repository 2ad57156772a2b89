package rules

import (
	"net/url"
	"strings"

	"github.com/nao1215/sitelint/internal/model"
)

// canonicalRule checks the format of the declared canonical link.
type canonicalRule struct {
	host         string
	strict       bool
	ampIndexPage string
}

func (r *canonicalRule) Name() string {
	return "canonical"
}

func (r *canonicalRule) Check(doc *model.PageDocument, _ *model.PageConfigEntry) []model.Violation {
	if doc.CanonicalURL == nil {
		return r.checkMissing(doc)
	}

	raw := *doc.CanonicalURL
	lower := strings.ToLower(raw)

	var violations []model.Violation

	u, err := url.Parse(raw)
	host := ""
	if err == nil {
		host = strings.ToLower(u.Hostname())
	}
	if host != r.host {
		violations = append(violations, model.NewViolation(doc.RelativePath, model.CategoryNonCanonicalDomain, raw))
	}

	if !strings.HasPrefix(lower, "https://") {
		violations = append(violations, model.NewViolation(doc.RelativePath, model.CategoryInsecureCanonical, raw))
	}

	if strings.Contains(lower, ".html") {
		violations = append(violations, model.NewViolation(doc.RelativePath, model.CategoryHTMLExtensionInCanonical, raw))
	}

	if hasAMPSegment(u, err, lower) && !r.isAMPIndex(doc.RelativePath) {
		violations = append(violations, model.NewViolation(doc.RelativePath, model.CategoryAmpCanonicalMismatch, raw))
	}

	return violations
}

// checkMissing reports an absent canonical on indexable pages.
func (r *canonicalRule) checkMissing(doc *model.PageDocument) []model.Violation {
	if !doc.Indexable() {
		return nil
	}
	v := model.NewViolation(doc.RelativePath, model.CategoryMissingCanonical, "no <link rel=\"canonical\">")
	if r.strict {
		v.Severity = model.SeverityError
	}
	return []model.Violation{v}
}

func (r *canonicalRule) isAMPIndex(relPath string) bool {
	return r.ampIndexPage != "" && cleanRelPath(relPath) == r.ampIndexPage
}

// hasAMPSegment reports whether the canonical URL path has an "amp"
// segment. Unparsable URLs fall back to a substring check.
func hasAMPSegment(u *url.URL, parseErr error, lower string) bool {
	if parseErr != nil {
		return strings.Contains(lower, "/amp/")
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if strings.EqualFold(seg, "amp") {
			return true
		}
	}
	return false
}
