package model

import (
	"reflect"
	"time"
)

// Entity is the unit of persistence: a dynamically typed attribute map plus
// the snapshot of those attributes at the last sync point. The snapshot
// exists only for dirty diffing; after a successful save the coordinator
// resynchronizes it via SyncOriginal.
type Entity struct {
	schema     *Schema
	attributes map[string]any
	original   map[string]any

	// Runtime additions to the schema-level serialization sets.
	hidden  []string
	visible []string
	appends []string

	// Exists is true once the entity has been confirmed persisted in
	// either store.
	Exists bool
	// RecentlyCreated is true for the cycle immediately after a
	// successful create.
	RecentlyCreated bool
}

// Schema returns the entity's type configuration.
func (e *Entity) Schema() *Schema { return e.schema }

// Get returns the attribute value for field with its cast applied. A nil
// stored value stays nil. Malformed JSON in a json-cast field is the only
// failure mode; every other cast miss degrades to the raw value.
func (e *Entity) Get(field string) (any, error) {
	v, ok := e.attributes[field]
	if !ok || v == nil {
		return nil, nil
	}
	return castRead(e.schema.Cast(field), v)
}

// Set stores an attribute value, encoding it eagerly per the field's cast.
// Set bypasses the mass-assignment guard intentionally; use Fill for
// untrusted input.
func (e *Entity) Set(field string, value any) {
	e.attributes[field] = castWrite(e.schema.Cast(field), value)
}

// Has reports whether the attribute is present (possibly nil).
func (e *Entity) Has(field string) bool {
	_, ok := e.attributes[field]
	return ok
}

// Fill mass-assigns the given attributes, silently skipping every field the
// schema guard rejects. This is mass-assignment protection, not validation.
func (e *Entity) Fill(attributes map[string]any) {
	for field, value := range attributes {
		if e.schema.IsFillable(field) {
			e.Set(field, value)
		}
	}
}

// SetRaw replaces the attribute map with raw storage values, bypassing
// casts. When sync is true the original snapshot is captured at the same
// time, so the entity starts clean.
func (e *Entity) SetRaw(attributes map[string]any, sync bool) {
	e.attributes = make(map[string]any, len(attributes))
	for k, v := range attributes {
		e.attributes[k] = v
	}
	if sync {
		e.SyncOriginal()
	}
}

// RawAttributes returns a copy of the raw attribute map as stored, casts
// not applied. Materialized relation values are included as-is.
func (e *Entity) RawAttributes() map[string]any {
	out := make(map[string]any, len(e.attributes))
	for k, v := range e.attributes {
		out[k] = v
	}
	return out
}

// SyncOriginal captures the current attributes as the dirty-tracking
// snapshot.
func (e *Entity) SyncOriginal() {
	e.original = make(map[string]any, len(e.attributes))
	for k, v := range e.attributes {
		e.original[k] = v
	}
}

// IsDirty reports whether any of the named fields differ from the original
// snapshot under value equality. With no fields it checks every attribute.
func (e *Entity) IsDirty(fields ...string) bool {
	if len(fields) == 0 {
		for field := range e.attributes {
			if e.fieldDirty(field) {
				return true
			}
		}
		return false
	}
	for _, field := range fields {
		if e.fieldDirty(field) {
			return true
		}
	}
	return false
}

func (e *Entity) fieldDirty(field string) bool {
	current, inCurrent := e.attributes[field]
	orig, inOriginal := e.original[field]
	if inCurrent != inOriginal {
		return true
	}
	return !reflect.DeepEqual(current, orig)
}

// Dirty returns the attributes that differ from the original snapshot.
func (e *Entity) Dirty() map[string]any {
	out := make(map[string]any)
	for field, v := range e.attributes {
		if e.fieldDirty(field) {
			out[field] = v
		}
	}
	return out
}

// Key returns the primary key value, nil when unset.
func (e *Entity) Key() any {
	return e.attributes[e.schema.Key()]
}

// SetKey assigns the primary key value.
func (e *Entity) SetKey(value any) {
	e.Set(e.schema.Key(), value)
}

// Touch maintains the automatic timestamps. It is a no-op unless the schema
// opts in. The updated-at field is always set; the created-at field only on
// a new entity when it has not been manually assigned already.
func (e *Entity) Touch(now time.Time) {
	if !e.schema.Timestamps {
		return
	}
	stamp := now.UTC().Format(TimeFormat)
	e.Set(e.schema.UpdatedAt(), stamp)
	if !e.Exists && !e.IsDirty(e.schema.CreatedAt()) {
		e.Set(e.schema.CreatedAt(), stamp)
	}
}

// Hide adds fields to the runtime hidden set for serialization.
func (e *Entity) Hide(fields ...string) {
	e.hidden = append(e.hidden, fields...)
}

// Show adds fields to the runtime visible set for serialization.
func (e *Entity) Show(fields ...string) {
	e.visible = append(e.visible, fields...)
}

// Append adds accessor fields to the runtime append set for serialization.
func (e *Entity) Append(fields ...string) {
	e.appends = append(e.appends, fields...)
}
