package pageconfig

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/page-config.schema.json
var schemaJSON []byte

// schemaURL identifies the embedded schema inside the compiler. It is
// never fetched.
const schemaURL = "https://sitelint.dev/schema/page-config.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// pageConfigSchema compiles the embedded schema on first use.
func pageConfigSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(schemaJSON, &doc); err != nil {
			compileErr = fmt.Errorf("parse page config schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add page config schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// validate checks a decoded page config document against the schema.
// Every failing location is listed in the returned error.
func validate(doc any) error {
	schema, err := pageConfigSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(validationMessages(ve), "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// validationMessages flattens a validation error tree into one message per
// leaf, prefixed with its JSON path.
func validationMessages(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		path := "$"
		if len(ve.InstanceLocation) > 0 {
			path = "$." + strings.Join(ve.InstanceLocation, ".")
		}
		return []string{path + ": " + leafMessage(ve)}
	}
	var out []string
	for _, cause := range ve.Causes {
		out = append(out, validationMessages(cause)...)
	}
	return out
}

// leafMessage returns the last line of the error text, which carries the
// actual reason without the schema location header.
func leafMessage(ve *jsonschema.ValidationError) string {
	lines := strings.Split(strings.TrimSpace(ve.Error()), "\n")
	msg := strings.TrimSpace(lines[len(lines)-1])
	msg = strings.TrimPrefix(msg, "- ")
	return msg
}
