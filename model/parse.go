package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Parse decodes a generated model from JSON text.
//
// Only input that is not a JSON object is rejected. Inside the object every
// malformed substructure degrades to empty: collections of the wrong type are
// dropped, entries without usable names are skipped and fields the scoring
// engine does not compare (reasoning text and the like) are discarded.
func Parse(data []byte) (Model, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Model{}, fmt.Errorf("model must be a JSON object: %w", err)
	}
	if raw == nil {
		return Model{}, errors.New("model must be a JSON object, got null")
	}
	return fromRaw(raw), nil
}

// UnmarshalJSON makes embedded models (request bodies, suite files) as lenient as Parse
func (m *Model) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Model{}
		return nil
	}
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func fromRaw(raw map[string]json.RawMessage) Model {
	var m Model

	for _, obj := range objects(raw["variables"]) {
		name, ok := stringField(obj, "name")
		if !ok || name == "" {
			continue
		}
		typ, _ := stringField(obj, "type")
		eq, _ := equationField(obj)
		m.Variables = append(m.Variables, Variable{
			Name:     name,
			Type:     ParseVariableType(typ),
			Equation: eq,
			Inflows:  stringList(obj["inflows"]),
			Outflows: stringList(obj["outflows"]),
		})
	}

	for _, obj := range objects(raw["relationships"]) {
		from, okFrom := stringField(obj, "from")
		to, okTo := stringField(obj, "to")
		if !okFrom || !okTo || from == "" || to == "" {
			continue
		}
		polarity, _ := stringField(obj, "polarity")
		m.Relationships = append(m.Relationships, Relationship{
			From:     from,
			To:       to,
			Polarity: polarity,
		})
	}

	if specs, ok := object(raw["specs"]); ok {
		units, _ := stringField(specs, "timeUnits")
		m.Specs = &Specs{TimeUnits: units}
	}

	return m
}

func object(data json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// objects returns the object entries of a JSON array, skipping anything else
func objects(data json.RawMessage) []map[string]json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		if obj, ok := object(item); ok {
			out = append(out, obj)
		}
	}
	return out
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	data, exists := obj[key]
	if !exists {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

// equationField accepts a string or a bare JSON number, kept as written
func equationField(obj map[string]json.RawMessage) (string, bool) {
	if s, ok := stringField(obj, "equation"); ok {
		return s, true
	}
	data, exists := obj["equation"]
	if !exists {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

func stringList(data json.RawMessage) []string {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	var out []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}
