// Package pageconfig loads the page config file and answers which
// structured data types a page is expected to declare.
//
// The page config is a JSON object keyed by page id:
//
//	{
//	  "faq":       {"type": "FAQPage", "requiredSchemas": ["FAQPage"]},
//	  "blog/post": {"type": "BlogPosting", "requiredSchemas": ["BlogPosting", "BreadcrumbList"]}
//	}
//
// The file is validated against an embedded JSON Schema, loaded once per
// run into an Index and then only read. An Index is safe for concurrent use.
package pageconfig
