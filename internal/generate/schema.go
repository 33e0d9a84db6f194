// Package generate requests schema-constrained JSON from the LLM gateway
// and answers with a fixed fallback when that fails.
package generate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a named JSON schema. The same document is sent to the provider
// and used to validate what comes back.
type Schema struct {
	name     string
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

func CompileSchema(name string, raw []byte) (*Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://tourwizard.local/schemas/%s.json", name)
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, raw: json.RawMessage(raw), compiled: compiled}, nil
}

// MustCompileSchema panics on an invalid schema. For package-level schemas.
func MustCompileSchema(name string, raw []byte) *Schema {
	s, err := CompileSchema(name, raw)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string         { return s.name }
func (s *Schema) Raw() json.RawMessage { return s.raw }

// Validate checks a JSON document against the schema.
func (s *Schema) Validate(doc []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode %s: %w", s.name, err)
	}
	if dec.More() {
		return fmt.Errorf("decode %s: trailing data after document", s.name)
	}
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("validate %s: %w", s.name, err)
	}
	return nil
}
