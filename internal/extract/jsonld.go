package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// errEmptyBlock is returned for an ld+json script without content.
var errEmptyBlock = errors.New("empty structured data block")

// schemaPrefixes are stripped from @type values so that
// "https://schema.org/FAQPage" and "FAQPage" compare equal.
var schemaPrefixes = []string{
	"https://schema.org/",
	"http://schema.org/",
	"schema:",
}

// parseJSONLD returns the @type values declared in a JSON-LD block. On
// failure it also returns the byte offset of the error within body.
func parseJSONLD(body []byte) ([]string, int, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, 0, errEmptyBlock
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, int(syntaxErr.Offset), err
		}
		return nil, 0, err
	}

	var types []string
	collectTypes(v, &types)
	return types, 0, nil
}

// collectTypes walks a decoded JSON-LD value. A top-level array is a list
// of entities, and an @graph member contributes the types of its entities.
func collectTypes(v any, out *[]string) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			collectTypes(item, out)
		}
	case map[string]any:
		switch t := node["@type"].(type) {
		case string:
			appendType(out, t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					appendType(out, s)
				}
			}
		}
		if graph, ok := node["@graph"]; ok {
			collectTypes(graph, out)
		}
	}
}

func appendType(out *[]string, t string) {
	t = strings.TrimSpace(t)
	for _, prefix := range schemaPrefixes {
		if rest, ok := strings.CutPrefix(t, prefix); ok {
			t = rest
			break
		}
	}
	if t != "" {
		*out = append(*out, t)
	}
}
