// Package rules checks an extracted page against the structural rules of
// the site: heading hierarchy, canonical link format and the structured
// data types the page config requires.
//
// Each rule is independent. The Evaluator runs them in a fixed order so that
// the violations of a page always come out in the same sequence:
//
//  1. headings: duplicate H1, skipped levels and orphaned deep headings
//  2. canonical: host, scheme, .html extension, AMP path and absence
//  3. schema: required @type coverage for configured pages
//  4. parse errors: malformed JSON-LD blocks forwarded as warnings
//
// Evaluation never fails. A page whose markup could only be partially
// understood yields the violations derivable from what was extracted.
package rules
