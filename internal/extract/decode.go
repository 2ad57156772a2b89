package extract

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// ErrUnknownEncoding is returned by Encode for an encoding name that
// charset does not know.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Decode converts the raw bytes of an HTML file to a UTF-8 string and
// returns the name of the detected encoding. contentType may be empty, in
// which case the encoding is sniffed from a byte order mark or a
// <meta charset> declaration.
//
// Input that is already valid UTF-8 is returned unchanged unless it
// explicitly declares another encoding.
func Decode(raw []byte, contentType string) (string, string) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(raw)) {
		return string(raw), "utf-8"
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), "utf-8"
	}
	return string(decoded), name
}

// Encode converts content back to the encoding Decode reported. An empty
// name or "utf-8" returns the bytes of content unchanged. Content with
// characters the target encoding cannot represent is an error.
func Encode(content, name string) ([]byte, error) {
	if name == "" || name == "utf-8" {
		return []byte(content), nil
	}

	enc, _ := charset.Lookup(name)
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	encoded, err := enc.NewEncoder().Bytes([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return encoded, nil
}
