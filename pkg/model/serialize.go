package model

import (
	"encoding/json"
	"time"
)

// ToMap serializes the entity to a plain map. Three visibility mechanisms
// combine: the effective hidden set is (schema hidden + runtime hidden)
// minus (schema visible + runtime visible); when the schema declares a
// visible allowlist only fields in the visible union pass; appended fields
// are then added through Get unless already present or hidden. Cast values
// are applied, nested entities are serialized recursively, and temporal
// values use the canonical time format.
func (e *Entity) ToMap() (map[string]any, error) {
	visibleUnion := append(append([]string{}, e.schema.Visible...), e.visible...)
	hidden := make(map[string]bool)
	for _, field := range e.schema.Hidden {
		hidden[field] = true
	}
	for _, field := range e.hidden {
		hidden[field] = true
	}
	for _, field := range visibleUnion {
		delete(hidden, field)
	}

	out := make(map[string]any, len(e.attributes))
	for field := range e.attributes {
		if len(e.schema.Visible) > 0 && !contains(visibleUnion, field) {
			continue
		}
		if hidden[field] {
			continue
		}
		value, err := e.serializedValue(field)
		if err != nil {
			return nil, err
		}
		out[field] = value
	}

	appends := append(append([]string{}, e.schema.Appends...), e.appends...)
	for _, field := range appends {
		if _, present := out[field]; present || hidden[field] {
			continue
		}
		value, err := e.serializedValue(field)
		if err != nil {
			return nil, err
		}
		out[field] = value
	}
	return out, nil
}

func (e *Entity) serializedValue(field string) (any, error) {
	value, err := e.Get(field)
	if err != nil {
		return nil, err
	}
	return serializeValue(value)
}

func serializeValue(value any) (any, error) {
	switch t := value.(type) {
	case *Entity:
		return t.ToMap()
	case []*Entity:
		list := make([]map[string]any, 0, len(t))
		for _, child := range t {
			m, err := child.ToMap()
			if err != nil {
				return nil, err
			}
			list = append(list, m)
		}
		return list, nil
	case time.Time:
		return t.Format(TimeFormat), nil
	default:
		return value, nil
	}
}

// MarshalJSON serializes the entity through ToMap, so hidden fields and
// appends apply to JSON output as well.
func (e *Entity) MarshalJSON() ([]byte, error) {
	m, err := e.ToMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}
