// Package extract reads headings, JSON-LD structured data, the canonical
// link and page metadata out of an HTML document.
//
// Positional data (headings, structured data blocks and the canonical link)
// comes from a single streaming pass of the golang.org/x/net/html tokenizer,
// which lets every item carry its byte offset in the source. The fixer in
// package fix relies on those offsets to rewrite individual tags without
// touching the rest of the document.
//
// Extraction is pure and never fails: malformed markup yields whatever
// could be recognized, and a structured data block that cannot be parsed is
// recorded as a SchemaParseError instead of aborting the pass.
package extract
