// Package lattice invokes the external formal-concept-analysis tool as
// a one-shot batch subprocess and imports its concept list.
package lattice

import (
	"encoding/json"
	"strings"
	"sync"

	"abstractor/internal/fca"

	"github.com/cockroachdb/errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// conceptSchema is the contract the external tool's JSON output must
// satisfy before any concept is trusted. Catching version drift here
// keeps vague decode failures out of the repository.
const conceptSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["concepts"],
  "properties": {
    "concepts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["extent", "intent"],
        "properties": {
          "id": {"type": "string"},
          "extent": {"type": "array", "items": {"type": "string"}},
          "intent": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func conceptListSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("concepts.schema.json", strings.NewReader(conceptSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("concepts.schema.json")
	})
	return compiledSchema, schemaErr
}

type conceptList struct {
	Concepts []fca.RawConcept `json:"concepts"`
}

// DecodeResult validates raw tool output against the concept-list
// schema and returns the concepts it contains.
func DecodeResult(data []byte) ([]fca.RawConcept, error) {
	schema, err := conceptListSchema()
	if err != nil {
		return nil, errors.Wrap(err, "compile concept schema")
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, errors.Wrap(err, "lattice result is not valid JSON")
	}
	if err := schema.Validate(generic); err != nil {
		return nil, errors.Wrap(err, "lattice result does not match the concept-list contract")
	}

	var list conceptList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "decode lattice result")
	}
	return list.Concepts, nil
}
