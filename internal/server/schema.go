// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const bundleSchemaJSON = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "minLength": 1, "maxLength": 2000},
    "filters": {
      "type": "object",
      "properties": {
        "countries": {"type": "array", "items": {"type": "string"}, "maxItems": 50}
      }
    },
    "audience": {"type": "string", "enum": ["patient", "doctor"]}
  }
}`

const trialsSchemaJSON = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "maxLength": 2000},
    "phase": {"type": "string", "enum": ["", "1", "2", "3", "4"]},
    "status": {"type": "string"},
    "country": {"type": "string"},
    "genes": {"type": "array", "items": {"type": "string"}, "maxItems": 20},
    "source": {"type": "string"}
  }
}`

var (
	bundleSchema = mustSchema(bundleSchemaJSON)
	trialsSchema = mustSchema(trialsSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling request schema: %v", err))
	}
	return s
}

// validate checks a request body against schema and returns one error
// listing every violation.
func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return fmt.Errorf("request validation failed: %s", strings.Join(msgs, "; "))
}
