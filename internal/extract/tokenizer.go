package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/sitelint/internal/model"
)

// openHeading is a heading whose end tag has not been seen yet.
type openHeading struct {
	node model.HeadingNode
	text strings.Builder
}

// scanner holds the state of one tokenizer pass.
type scanner struct {
	res  *Result
	seen map[string]struct{}

	heading *openHeading

	// ldOpen is true between the start and end tag of an ld+json script.
	ldOpen  bool
	ldStart int
	ldBody  []byte

	// skipText is true inside scripts and styles that are not ld+json.
	skipText bool
}

// scan runs the tokenizer over content. Offsets are computed by summing
// the raw length of every token, so they index into content directly.
func scan(content string) *Result {
	s := &scanner{
		res:  &Result{},
		seen: make(map[string]struct{}),
	}

	z := html.NewTokenizer(strings.NewReader(content))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF, or a read error that cannot happen on a strings.Reader.
			break
		}
		start := offset
		offset += len(z.Raw())
		span := model.Span{Start: start, End: offset}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			s.startTag(z, span)
		case html.EndTagToken:
			s.endTag(z, span)
		case html.TextToken:
			s.text(z)
		}
	}

	// Unterminated elements at EOF.
	if s.ldOpen {
		s.flushJSONLD()
	}
	s.closeHeading(model.Span{})

	return s.res
}

func (s *scanner) startTag(z *html.Tokenizer, span model.Span) {
	name, hasAttr := z.TagName()
	a := atom.Lookup(name)

	if level := headingLevel(a); level > 0 {
		// A heading start tag implicitly closes an open heading.
		s.closeHeading(model.Span{})
		s.heading = &openHeading{
			node: model.HeadingNode{
				Level:        level,
				SourceOffset: span.Start,
				StartTag:     span,
			},
		}
		return
	}

	switch a {
	case atom.Link:
		if s.res.CanonicalURL != nil || !hasAttr {
			return
		}
		attrs := readAttrs(z)
		if !hasToken(attrs["rel"], "canonical") {
			return
		}
		href, ok := attrs["href"]
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		s.res.CanonicalURL = &href
		s.res.CanonicalSpan = span

	case atom.Script:
		var attrs map[string]string
		if hasAttr {
			attrs = readAttrs(z)
		}
		if isJSONLD(attrs["type"]) {
			s.ldOpen = true
			s.ldStart = span.End
			s.ldBody = s.ldBody[:0]
			return
		}
		s.skipText = true

	case atom.Style, atom.Template:
		s.skipText = true
	}
}

func (s *scanner) endTag(z *html.Tokenizer, span model.Span) {
	name, _ := z.TagName()
	a := atom.Lookup(name)

	if headingLevel(a) > 0 {
		s.closeHeading(span)
		return
	}

	switch a {
	case atom.Script:
		if s.ldOpen {
			s.flushJSONLD()
		}
		s.skipText = false
	case atom.Style, atom.Template:
		s.skipText = false
	}
}

func (s *scanner) text(z *html.Tokenizer) {
	if s.ldOpen {
		s.ldBody = append(s.ldBody, z.Raw()...)
		return
	}
	if s.heading == nil || s.skipText {
		return
	}
	s.heading.text.Write(z.Text())
}

// closeHeading finishes the open heading, if any. end is the zero Span
// when the heading was closed implicitly.
func (s *scanner) closeHeading(end model.Span) {
	if s.heading == nil {
		return
	}
	node := s.heading.node
	node.Text = cleanText(s.heading.text.String())
	node.EndTag = end
	s.res.Headings = append(s.res.Headings, node)
	s.heading = nil
}

func (s *scanner) flushJSONLD() {
	s.ldOpen = false

	types, offset, err := parseJSONLD(s.ldBody)
	if err != nil {
		s.res.SchemaParseErrors = append(s.res.SchemaParseErrors, model.SchemaParseError{
			Offset:  s.ldStart + offset,
			Message: err.Error(),
		})
		return
	}
	for _, t := range types {
		if _, dup := s.seen[t]; dup {
			continue
		}
		s.seen[t] = struct{}{}
		s.res.DeclaredSchemaTypes = append(s.res.DeclaredSchemaTypes, t)
	}
}

// headingLevel returns 1..6 for heading atoms and 0 otherwise.
func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	default:
		return 0
	}
}

// readAttrs returns the attributes of the current tag. Keys are lower
// case; when an attribute repeats the first value wins.
func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		k := string(key)
		if _, dup := attrs[k]; !dup {
			attrs[k] = string(val)
		}
		if !more {
			return attrs
		}
	}
}

// hasToken reports whether the space separated list contains want,
// ignoring case.
func hasToken(list, want string) bool {
	for _, tok := range strings.Fields(list) {
		if strings.EqualFold(tok, want) {
			return true
		}
	}
	return false
}

func isJSONLD(scriptType string) bool {
	mediaType, _, _ := strings.Cut(scriptType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/ld+json")
}

// cleanText collapses whitespace and applies Unicode NFC normalization.
func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
