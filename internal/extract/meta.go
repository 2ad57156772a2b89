package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitelint/internal/model"
)

// readMeta reads document level metadata. Unlike headings and canonical
// links this data carries no offsets, so a DOM query is enough.
func readMeta(content string) model.PageMeta {
	var meta model.PageMeta

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return meta
	}

	meta.Title = cleanText(doc.Find("title").First().Text())
	meta.Lang = strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))

	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		value := strings.TrimSpace(s.AttrOr("content", ""))

		switch name {
		case "description":
			if meta.Description == "" {
				meta.Description = value
			}
		case "robots", "googlebot":
			if name == "robots" && meta.Robots == "" {
				meta.Robots = value
			}
			if isNoIndex(value) {
				meta.NoIndex = true
			}
		}
	})

	return meta
}

// isNoIndex reports whether a robots directive list forbids indexing.
func isNoIndex(directives string) bool {
	for _, d := range strings.Split(directives, ",") {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "noindex", "none":
			return true
		}
	}
	return false
}
