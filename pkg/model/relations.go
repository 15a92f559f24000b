package model

// Relation materializes the raw map stored under key into a child entity
// using the registered factory, replacing the raw value so repeated calls
// return the same instance. Returns nil when no factory is registered, the
// attribute is absent, or the raw value is not a map.
func (e *Entity) Relation(key string) *Entity {
	if child, ok := e.attributes[key].(*Entity); ok {
		return child
	}
	factory := e.factoryFor(key)
	if factory == nil {
		return nil
	}
	raw, ok := e.attributes[key].(map[string]any)
	if !ok {
		return nil
	}
	child := materialize(factory, raw)
	e.attributes[key] = child
	return child
}

// RelationList materializes the raw list of maps stored under key into child
// entities, memoizing the result. Returns an empty list when no factory is
// registered or the raw value is not a list.
func (e *Entity) RelationList(key string) []*Entity {
	if children, ok := e.attributes[key].([]*Entity); ok {
		return children
	}
	factory := e.factoryFor(key)
	if factory == nil {
		return nil
	}

	var children []*Entity
	switch raw := e.attributes[key].(type) {
	case []any:
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				children = append(children, materialize(factory, m))
			}
		}
	case []map[string]any:
		for _, m := range raw {
			children = append(children, materialize(factory, m))
		}
	default:
		return nil
	}
	e.attributes[key] = children
	return children
}

func (e *Entity) factoryFor(key string) Factory {
	if e.schema.Relations == nil {
		return nil
	}
	return e.schema.Relations[key]
}

// materialize hydrates a child from raw data: it exists and starts clean.
func materialize(factory Factory, raw map[string]any) *Entity {
	child := factory()
	child.SetRaw(raw, true)
	child.Exists = true
	return child
}
