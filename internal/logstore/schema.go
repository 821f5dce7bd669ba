package logstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"design-drop/internal/model"
)

// recordSchema describes one submission log line. name, email and ip are
// optional so lines written by older deployments, which omitted empty
// form fields, still read back.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["timestamp", "fileCount"],
  "properties": {
    "name":      {"type": "string"},
    "email":     {"type": "string"},
    "ip":        {"type": "string"},
    "timestamp": {"type": "string", "minLength": 1},
    "fileCount": {"type": "integer", "minimum": 1}
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	})
	return schema, schemaErr
}

// ValidateRecord checks one raw JSON record against the log schema.
func ValidateRecord(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile record schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedRecord, strings.Join(msgs, "; "))
	}
	return nil
}

// decodeRecord validates raw and decodes it.
func decodeRecord(raw []byte) (model.Record, error) {
	if err := ValidateRecord(raw); err != nil {
		return model.Record{}, err
	}
	var rec model.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return rec, nil
}
