package pageconfig

import "errors"

var (
	// ErrNotFound is returned by Load when the page config file does not exist.
	ErrNotFound = errors.New("page config not found")

	// ErrInvalid is returned when the page config is not valid JSON or does
	// not match the page config schema.
	ErrInvalid = errors.New("invalid page config")

	// ErrDuplicatePageID is returned when two keys normalize to the same page id.
	ErrDuplicatePageID = errors.New("duplicate page id")
)
