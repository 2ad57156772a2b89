// Package canonical converts file paths under a site's output directory
// into canonical absolute URLs.
//
// The normalizer never rejects input: every path maps to some URL on the
// configured origin. Deciding whether a declared canonical is acceptable is
// the rule evaluator's job.
package canonical

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultOrigin is used when no origin is configured.
const DefaultOrigin = "https://www.example.com"

const (
	ampSegment   = "amp"
	indexSegment = "index"
	htmlSuffix   = ".html"
	ampSuffix    = ".amp"
)

// localePattern matches locale segments such as "en", "pt-BR" or "zh_CN".
var localePattern = regexp.MustCompile(`^[A-Za-z]{2}(?:[-_][A-Za-z]{2})?$`)

// Normalizer maps relative HTML paths to canonical URLs on a single origin.
// A Normalizer is immutable and safe for concurrent use.
type Normalizer struct {
	origin string
	host   string
}

// NewNormalizer creates a Normalizer for origin. The scheme is forced to
// https and the host to its www subdomain. An unparsable origin falls back
// to DefaultOrigin.
func NewNormalizer(origin string) *Normalizer {
	o, host := normalizeOrigin(origin)
	return &Normalizer{
		origin: o,
		host:   host,
	}
}

// normalizeOrigin returns "https://www.<host>" and the host part.
func normalizeOrigin(origin string) (string, string) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = DefaultOrigin
	}
	if !strings.Contains(origin, "://") {
		origin = "https://" + origin
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		u, _ = url.Parse(DefaultOrigin) //nolint:errcheck // constant is valid
	}

	host := strings.ToLower(u.Host)
	if !strings.HasPrefix(host, "www.") {
		host = "www." + host
	}
	return "https://" + host, host
}

// Origin returns the normalized origin without a trailing slash.
func (n *Normalizer) Origin() string {
	return n.origin
}

// Host returns the canonical host, including the www subdomain.
func (n *Normalizer) Host() string {
	return n.host
}

// Normalize converts a relative path such as "amp/en/blog/post.amp.html"
// into its canonical URL ("https://www.example.com/blog/post").
//
// The output never contains ".html" or an "/amp/" segment, always starts
// with the origin, and directory-style pages end with "/".
func (n *Normalizer) Normalize(relativePath string) string {
	segs, dirForm, _ := splitPath(relativePath)
	if len(segs) == 0 {
		return n.origin + "/"
	}

	escaped := (&url.URL{Path: strings.Join(segs, "/")}).EscapedPath()
	if dirForm {
		return n.origin + "/" + escaped + "/"
	}
	return n.origin + "/" + escaped
}

// StripOrigin returns the path form of a canonical URL ("/blog/post").
// Normalizing the result yields the original URL again.
func (n *Normalizer) StripOrigin(canonicalURL string) string {
	if rest, ok := strings.CutPrefix(canonicalURL, n.origin); ok {
		if u, err := url.Parse(rest); err == nil {
			rest = u.Path
		}
		if rest == "" {
			return "/"
		}
		return rest
	}
	u, err := url.Parse(canonicalURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// Locale returns the locale of an AMP path ("amp/en/blog.html" -> "en"),
// or "" when the path carries none.
func Locale(relativePath string) string {
	_, _, locale := splitPath(relativePath)
	return locale
}

// IsAMP reports whether the path is an AMP variant.
func IsAMP(relativePath string) bool {
	p := cleanPath(relativePath)
	for _, seg := range strings.Split(p, "/") {
		if strings.EqualFold(seg, ampSegment) {
			return true
		}
	}
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ampSuffix+htmlSuffix) || strings.HasSuffix(lower, ampSuffix)
}

// PageKeys returns the page config keys for a path, most specific first:
// the full extensionless path ("blog/post") followed by the file stem
// ("post"). Index pages are keyed by their directory; the site root is
// keyed as "index".
func (n *Normalizer) PageKeys(relativePath string) []string {
	segs, _, _ := splitPath(relativePath)
	if len(segs) == 0 {
		return []string{indexSegment}
	}

	// Casers are stateful, so each call gets its own.
	lower := cases.Lower(language.Und)
	full := lower.String(strings.Join(segs, "/"))
	stem := lower.String(segs[len(segs)-1])
	if full == stem {
		return []string{full}
	}
	return []string{full, stem}
}

// PageID returns the primary page config key for a path.
func (n *Normalizer) PageID(relativePath string) string {
	return n.PageKeys(relativePath)[0]
}

// cleanPath converts separators and drops leading "/" and "./".
func cleanPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

// splitPath returns the canonical segments of a path, whether the page
// is in directory form, and the AMP locale if any.
func splitPath(relativePath string) ([]string, bool, string) {
	p := cleanPath(relativePath)
	dirForm := p == "" || strings.HasSuffix(p, "/")

	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		segs = append(segs, seg)
	}

	var locale string
	if len(segs) > 0 && strings.EqualFold(segs[0], ampSegment) {
		segs = segs[1:]
		if len(segs) > 0 && localePattern.MatchString(segs[0]) && (len(segs) > 1 || dirForm) {
			locale = segs[0]
			segs = segs[1:]
		}
	}

	kept := segs[:0]
	for _, seg := range segs {
		seg = trimPageSuffixes(seg)
		if seg == "" || strings.EqualFold(seg, ampSegment) {
			continue
		}
		kept = append(kept, seg)
	}
	segs = kept

	if !dirForm && len(segs) > 0 && strings.EqualFold(segs[len(segs)-1], indexSegment) {
		segs = segs[:len(segs)-1]
		dirForm = true
	}
	if len(segs) == 0 {
		return nil, true, locale
	}

	return segs, dirForm, locale
}

// trimPageSuffixes removes every ".html" from a segment, then strips
// ".amp" suffixes until none remain.
func trimPageSuffixes(name string) string {
	for i := indexHTML(name); i >= 0; i = indexHTML(name) {
		name = name[:i] + name[i+len(htmlSuffix):]
	}
	for {
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ampSuffix) {
			return name
		}
		name = name[:len(name)-len(ampSuffix)]
	}
}

// indexHTML returns the byte offset of the first ".html" in s, ignoring
// case, or -1.
func indexHTML(s string) int {
	for i := 0; i+len(htmlSuffix) <= len(s); i++ {
		if s[i] == '.' && strings.EqualFold(s[i:i+len(htmlSuffix)], htmlSuffix) {
			return i
		}
	}
	return -1
}
