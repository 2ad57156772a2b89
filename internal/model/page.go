package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// PageDocument represents one on-disk HTML file under analysis.
//
// A PageDocument is created fresh on every scan and is never persisted
// between runs. RawContent is an immutable snapshot for the duration of a
// pass; the fixer produces new content instead of mutating it.
type PageDocument struct {
	// RelativePath is the slash-separated path of the file relative to the
	// scan root (e.g. "blog/post.html"). It is the unique key within a scan.
	RelativePath string `json:"relative_path"`

	// RawContent is the full text content of the file at scan time.
	RawContent string `json:"-"`

	// Hash is the SHA3-256 hex digest of RawContent.
	Hash string `json:"hash"`

	// Headings contains h1..h6 elements in document order.
	Headings []HeadingNode `json:"headings,omitempty"`

	// DeclaredSchemaTypes contains every @type found in JSON-LD blocks,
	// deduplicated, in first-seen order.
	DeclaredSchemaTypes []string `json:"declared_schema_types,omitempty"`

	// SchemaParseErrors records JSON-LD blocks that could not be parsed.
	SchemaParseErrors []SchemaParseError `json:"schema_parse_errors,omitempty"`

	// CanonicalURL is the href of the first canonical link, or nil if absent.
	CanonicalURL *string `json:"canonical_url,omitempty"`

	// CanonicalSpan locates the first canonical <link> tag in RawContent.
	CanonicalSpan Span `json:"-"`

	// Meta contains page level metadata (title, robots, ...).
	Meta PageMeta `json:"meta"`
}

// HasSchemaType reports whether the document declares the given @type.
func (d *PageDocument) HasSchemaType(schemaType string) bool {
	for _, t := range d.DeclaredSchemaTypes {
		if t == schemaType {
			return true
		}
	}
	return false
}

// Indexable reports whether the page may be indexed by search engines.
func (d *PageDocument) Indexable() bool {
	return !d.Meta.NoIndex
}

// ComputeHash sets Hash from RawContent.
func (d *PageDocument) ComputeHash() {
	d.Hash = ContentHash(d.RawContent)
}

// ContentHash returns the SHA3-256 hex digest of content.
func ContentHash(content string) string {
	if content == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Span is a half-open byte range [Start, End) within a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the length of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Valid reports whether the span covers at least one byte.
func (s Span) Valid() bool {
	return s.End > s.Start && s.Start >= 0
}

// HeadingNode is a single h1..h6 element.
type HeadingNode struct {
	// Level is the heading level, 1 through 6.
	Level int `json:"level"`

	// Text is the heading's text content with nested markup removed.
	Text string `json:"text"`

	// SourceOffset is the byte offset of the start tag in the document.
	SourceOffset int `json:"source_offset"`

	// StartTag and EndTag locate the opening and closing tags. EndTag is
	// the zero Span when the heading was never closed.
	StartTag Span `json:"-"`
	EndTag   Span `json:"-"`
}

// SchemaParseError records a JSON-LD block that failed to parse.
type SchemaParseError struct {
	File    string `json:"file"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

// PageMeta holds document level metadata read from <head>.
type PageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Robots      string `json:"robots,omitempty"`
	Lang        string `json:"lang,omitempty"`

	// NoIndex is true when a robots meta tag carries a noindex directive.
	NoIndex bool `json:"noindex,omitempty"`
}

// ContentType is the declared page type in the page config.
type ContentType string

// Common content types. Any schema.org type is accepted.
const (
	ContentTypeWebPage     ContentType = "WebPage"
	ContentTypeArticle     ContentType = "Article"
	ContentTypeBlogPosting ContentType = "BlogPosting"
	ContentTypeFAQPage     ContentType = "FAQPage"
)

// PageConfigEntry is the declarative expectation for one logical page.
// Entries are loaded read-only once per run and never mutated.
type PageConfigEntry struct {
	PageID              string      `json:"pageId"`
	ContentType         ContentType `json:"type"`
	RequiredSchemaTypes []string    `json:"requiredSchemas"`
}
