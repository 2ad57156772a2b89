package extract

import (
	"github.com/nao1215/sitelint/internal/model"
)

// Result is everything Extract found in one document.
type Result struct {
	// Headings contains h1..h6 in document order.
	Headings []model.HeadingNode

	// DeclaredSchemaTypes contains every JSON-LD @type, deduplicated, in
	// first-seen order.
	DeclaredSchemaTypes []string

	// SchemaParseErrors records JSON-LD blocks that could not be parsed.
	// File is left empty; Document fills it in.
	SchemaParseErrors []model.SchemaParseError

	// CanonicalURL is the href of the first canonical link, or nil.
	CanonicalURL *string

	// CanonicalSpan locates the first canonical <link> tag.
	CanonicalSpan model.Span

	// Meta holds title, description, robots and lang.
	Meta model.PageMeta
}

// Extract scans content and returns its headings, structured data types,
// canonical link and metadata.
func Extract(content string) *Result {
	res := scan(content)
	res.Meta = readMeta(content)
	return res
}

// Document builds a PageDocument for the file at relPath with the given
// content. The content hash is computed and every extracted field is set.
func Document(relPath, content string) *model.PageDocument {
	res := Extract(content)

	doc := &model.PageDocument{
		RelativePath:        relPath,
		RawContent:          content,
		Headings:            res.Headings,
		DeclaredSchemaTypes: res.DeclaredSchemaTypes,
		CanonicalURL:        res.CanonicalURL,
		CanonicalSpan:       res.CanonicalSpan,
		Meta:                res.Meta,
	}
	for _, pe := range res.SchemaParseErrors {
		pe.File = relPath
		doc.SchemaParseErrors = append(doc.SchemaParseErrors, pe)
	}
	doc.ComputeHash()
	return doc
}
