package answers

import (
	"bytes"
	"encoding/json"
	"strings"

	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
)

type Mode string

const (
	// ModeObjective sets mark every answer as correct or incorrect.
	ModeObjective Mode = "objective"
	// ModeChoice sets pick an option key per question.
	ModeChoice Mode = "choice"
)

// choice keys are looked up on object items in this order
var choiceFields = []string{"choice", "answer", "selected"}

// Set is a decoded, homogeneous answer set. Exactly one of Correct and
// Choices is populated, according to Mode.
type Set struct {
	Mode    Mode
	Correct []bool
	Choices []string
	Raw     []json.RawMessage
}

func (s Set) Len() int {
	return len(s.Raw)
}

func NewEmptyError() error {
	return hferrors.NewValidationError("answers", "answers must be a non-empty array")
}

func NewFormatError() error {
	return hferrors.NewValidationError("answers", "answers format is invalid")
}

// Decode classifies items as an objective or a choice set. Objective wins
// when every item satisfies both forms.
func Decode(items []json.RawMessage) (Set, error) {
	if len(items) == 0 {
		return Set{}, NewEmptyError()
	}

	if correct, ok := decodeObjective(items); ok {
		return Set{Mode: ModeObjective, Correct: correct, Raw: items}, nil
	}
	if choices, ok := decodeChoices(items); ok {
		return Set{Mode: ModeChoice, Choices: choices, Raw: items}, nil
	}
	return Set{}, NewFormatError()
}

// DecodeJSON decodes a raw JSON value that must be an array of answers.
func DecodeJSON(data []byte) (Set, error) {
	var items []json.RawMessage
	if len(bytes.TrimSpace(data)) == 0 || json.Unmarshal(data, &items) != nil || items == nil {
		return Set{}, NewEmptyError()
	}
	return Decode(items)
}

func decodeObjective(items []json.RawMessage) ([]bool, bool) {
	correct := make([]bool, len(items))
	for i, item := range items {
		c, ok := ObjectiveItem(item)
		if !ok {
			return nil, false
		}
		correct[i] = c
	}
	return correct, true
}

func decodeChoices(items []json.RawMessage) ([]string, bool) {
	choices := make([]string, len(items))
	for i, item := range items {
		c, ok := ChoiceItem(item)
		if !ok {
			return nil, false
		}
		choices[i] = c
	}
	return choices, true
}

// ObjectiveItem reports whether item is a boolean or an object with a boolean
// "correct" field, and whether that item counts as correct.
func ObjectiveItem(item json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(item, &b); err == nil && !isNull(item) {
		return b, true
	}

	fields, ok := objectFields(item)
	if !ok {
		return false, false
	}
	raw, ok := fields["correct"]
	if !ok || isNull(raw) {
		return false, false
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// ChoiceItem returns the trimmed choice key carried by item. A string item is
// its own key; for objects the first string-typed field among choice, answer
// and selected is used. Blank keys are not valid choices.
func ChoiceItem(item json.RawMessage) (string, bool) {
	if s, ok := stringValue(item); ok {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	fields, ok := objectFields(item)
	if !ok {
		return "", false
	}
	for _, name := range choiceFields {
		raw, present := fields[name]
		if !present {
			continue
		}
		s, ok := stringValue(raw)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return "", false
}

func stringValue(raw json.RawMessage) (string, bool) {
	var s string
	if isNull(raw) {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
