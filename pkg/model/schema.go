// Package model implements the entity core of Larder: a per-entity attribute
// store with an original snapshot for dirty tracking, symmetric type casting,
// mass-assignment guarding, relation materialization, and visibility-aware
// serialization. Entities carry no I/O; the persist package moves them
// between stores.
package model

// GuardedAll is the wildcard marker for Schema.Guarded. When present, no
// field is mass-assignable.
const GuardedAll = "*"

// Default column names.
const (
	DefaultPrimaryKey = "id"
	DefaultCreatedAt  = "created_at"
	DefaultUpdatedAt  = "updated_at"
)

// Factory constructs an empty child entity for relation materialization.
// Register one per relation key; the parent's raw map (or list of maps)
// under that key is hydrated through it.
type Factory func() *Entity

// Schema is the fixed per-entity-type configuration: storage names, the
// mass-assignment guard, casts, relations, serialization visibility, and the
// store participation flags. A Schema is shared by every instance of its
// entity type and must not be mutated once entities exist.
type Schema struct {
	// Table is the local SQLite table name.
	Table string
	// Resource is the remote REST resource name.
	Resource string
	// PrimaryKey defaults to "id".
	PrimaryKey string

	// Fillable is the mass-assignment allowlist. When non-empty it wins
	// over Guarded.
	Fillable []string
	// Guarded is the mass-assignment denylist. GuardedAll blocks all.
	Guarded []string

	// Casts maps field names to their cast kind.
	Casts map[string]CastKind
	// Relations maps field names to child entity factories.
	Relations map[string]Factory

	// Hidden, Visible, and Appends control serialization.
	Hidden  []string
	Visible []string
	Appends []string

	// UseLocal and UseRemote select which stores participate in
	// persistence operations for this entity type.
	UseLocal  bool
	UseRemote bool

	// Timestamps enables automatic created_at/updated_at maintenance.
	Timestamps bool
	// UUIDKeys generates a UUID v7 primary key on create instead of
	// relying on the local store's row identifier.
	UUIDKeys bool

	// CreatedAtField and UpdatedAtField override the timestamp column
	// names. Empty means the defaults.
	CreatedAtField string
	UpdatedAtField string
}

// New constructs an empty, non-existing entity of this schema.
func (s *Schema) New() *Entity {
	return &Entity{
		schema:     s,
		attributes: make(map[string]any),
		original:   make(map[string]any),
	}
}

// Hydrate constructs an entity from a raw storage row, marks it existing,
// and syncs its dirty-tracking snapshot.
func (s *Schema) Hydrate(row map[string]any) *Entity {
	e := s.New()
	e.SetRaw(row, true)
	e.Exists = true
	return e
}

// Key returns the primary key field name.
func (s *Schema) Key() string {
	if s.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return s.PrimaryKey
}

// CreatedAt returns the created-at column name.
func (s *Schema) CreatedAt() string {
	if s.CreatedAtField == "" {
		return DefaultCreatedAt
	}
	return s.CreatedAtField
}

// UpdatedAt returns the updated-at column name.
func (s *Schema) UpdatedAt() string {
	if s.UpdatedAtField == "" {
		return DefaultUpdatedAt
	}
	return s.UpdatedAtField
}

// Cast returns the cast kind for a field, CastNone when unregistered.
func (s *Schema) Cast(field string) CastKind {
	if s.Casts == nil {
		return CastNone
	}
	return s.Casts[field]
}

// IsFillable reports whether a field passes the mass-assignment guard:
// a non-empty Fillable allowlist admits only its members; otherwise the
// Guarded denylist rejects its members, and the wildcard rejects everything.
func (s *Schema) IsFillable(field string) bool {
	if len(s.Fillable) > 0 {
		return contains(s.Fillable, field)
	}
	if contains(s.Guarded, GuardedAll) {
		return false
	}
	return !contains(s.Guarded, field)
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
