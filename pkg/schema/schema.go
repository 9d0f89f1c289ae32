package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

const DefaultMaxBodyBytes int64 = 1 << 20

// field name gojsonschema reports for the document itself
const rootField = "(root)"

// Schema checks the JSON shape of a request body before it is decoded.
// Violations become validation errors naming the first offending field in
// Fields order, with the message registered for that field in Messages.
type Schema struct {
	schema   *gojsonschema.Schema
	Fields   []string
	Messages map[string]string
}

func MustCompile(source string, fields []string, messages map[string]string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("invalid json schema: %v", err))
	}
	return &Schema{
		schema:   s,
		Fields:   fields,
		Messages: messages,
	}
}

func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return hferrors.NewValidationError("", "invalid json body")
	}
	if result.Valid() {
		return nil
	}

	offending := make(map[string]gojsonschema.ResultError)
	for _, re := range result.Errors() {
		field := fieldOf(re)
		if _, seen := offending[field]; !seen {
			offending[field] = re
		}
	}

	for _, field := range s.Fields {
		if _, ok := offending[field]; ok {
			return hferrors.NewValidationError(field, s.messageFor(field))
		}
	}

	// violations outside the known fields, e.g. a body that is not an object
	re := result.Errors()[0]
	field := fieldOf(re)
	if field == "" {
		return hferrors.NewValidationError("", "request body must be a json object")
	}
	return hferrors.NewValidationError(field, s.messageFor(field))
}

func (s *Schema) messageFor(field string) string {
	if msg, ok := s.Messages[field]; ok {
		return msg
	}
	return field + " is invalid"
}

// fieldOf returns the top level property a schema violation is about, or ""
// when it concerns the body as a whole.
func fieldOf(re gojsonschema.ResultError) string {
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			return prop
		}
	}
	field := re.Field()
	if field == rootField {
		return ""
	}
	return strings.SplitN(field, ".", 2)[0]
}

// DecodeRequest reads at most maxBytes of the request body, checks it against
// s and unmarshals it into dst. An empty body is treated as {}.
func DecodeRequest(w http.ResponseWriter, r *http.Request, maxBytes int64, s *Schema, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return hferrors.NewValidationError("", "request body too large")
		}
		return errors.Wrap(err, "reading request body")
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return hferrors.NewValidationError("", "invalid json body")
	}

	if s != nil {
		if err := s.Validate(body); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return hferrors.NewValidationError("", "invalid json body")
	}
	return nil
}
