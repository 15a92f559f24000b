package persist

import (
	"context"

	"github.com/mesh-intelligence/larder/pkg/model"
	"github.com/mesh-intelligence/larder/pkg/query"
)

// Find retrieves one entity by primary key. A local hit short-circuits the
// remote store with no freshness check; a local miss or failure falls
// through to the remote resource, whose result is opportunistically written
// back to the local store. Absence is nil, never an error.
func (c *Coordinator) Find(ctx context.Context, s *model.Schema, id any) *model.Entity {
	if c.useLocal(s) {
		row, err := query.New(c.local, s.Table).Where(s.Key(), id).First(ctx)
		if err != nil {
			c.log.Debug().Err(err).Str("table", s.Table).Msg("local find failed, falling back")
		} else if row != nil {
			return s.Hydrate(row)
		}
	}

	if c.useRemote(s) {
		resp, err := c.remote.Show(ctx, s.Resource, id)
		if err != nil || !resp.OK() {
			c.log.Debug().Err(err).Str("resource", s.Resource).Msg("remote show failed")
			return nil
		}
		body, err := resp.Entity()
		if err != nil || len(body) == 0 {
			return nil
		}
		e := s.Hydrate(body)
		c.syncLocal(ctx, s, body)
		return e
	}

	return nil
}

// All retrieves every entity of the schema. A successful local read fully
// satisfies the call, even when empty; only a local failure or a
// local-disabled schema reaches the remote index. Results are never merged
// across stores.
func (c *Coordinator) All(ctx context.Context, s *model.Schema) []*model.Entity {
	if c.useLocal(s) {
		rows, err := query.New(c.local, s.Table).Get(ctx)
		if err == nil {
			return hydrateAll(s, rows)
		}
		c.log.Debug().Err(err).Str("table", s.Table).Msg("local list failed, falling back")
	}

	if c.useRemote(s) {
		resp, err := c.remote.Index(ctx, s.Resource)
		if err != nil || !resp.OK() {
			c.log.Debug().Err(err).Str("resource", s.Resource).Msg("remote index failed")
			return nil
		}
		rows, err := resp.Collection()
		if err != nil {
			return nil
		}
		for _, row := range rows {
			c.syncLocal(ctx, s, row)
		}
		return hydrateAll(s, rows)
	}

	return nil
}

// Refresh re-reads the entity's current primary key from the local store,
// else the remote, overwriting attributes and resyncing the dirty-tracking
// snapshot. Returns false for unsaved entities and when neither read
// succeeds.
func (c *Coordinator) Refresh(ctx context.Context, e *model.Entity) bool {
	if !e.Exists || keyUnset(e.Key()) {
		return false
	}
	s := e.Schema()

	if c.useLocal(s) {
		row, err := query.New(c.local, s.Table).Where(s.Key(), e.Key()).First(ctx)
		if err != nil {
			c.log.Debug().Err(err).Str("table", s.Table).Msg("local refresh failed")
		} else if row != nil {
			e.SetRaw(row, true)
			return true
		}
	}

	if c.useRemote(s) {
		resp, err := c.remote.Show(ctx, s.Resource, e.Key())
		if err != nil || !resp.OK() {
			return false
		}
		body, err := resp.Entity()
		if err != nil || len(body) == 0 {
			return false
		}
		e.SetRaw(body, true)
		return true
	}

	return false
}

// syncLocal writes a remote-sourced row into the local store as a
// best-effort side effect of a successful remote read: insert when absent,
// update otherwise. Failures are logged and swallowed; they never fail the
// read that triggered them.
func (c *Coordinator) syncLocal(ctx context.Context, s *model.Schema, row map[string]any) {
	if !c.useLocal(s) {
		return
	}
	cols, err := c.local.Columns(ctx, s.Table)
	if err != nil {
		c.log.Debug().Err(err).Str("table", s.Table).Msg("local sync skipped")
		return
	}
	filtered := filterColumns(row, cols)
	id, ok := filtered[s.Key()]
	if !ok || keyUnset(id) {
		return
	}

	n, err := query.New(c.local, s.Table).Where(s.Key(), id).Count(ctx)
	if err != nil {
		c.log.Debug().Err(err).Str("table", s.Table).Msg("local sync skipped")
		return
	}
	if n > 0 {
		delete(filtered, s.Key())
		if len(filtered) == 0 {
			return
		}
		_, err = query.New(c.local, s.Table).Where(s.Key(), id).Update(ctx, filtered)
	} else {
		_, err = query.New(c.local, s.Table).Insert(ctx, filtered)
	}
	if err != nil {
		c.log.Debug().Err(err).Str("table", s.Table).Msg("local sync failed")
	}
}

func hydrateAll(s *model.Schema, rows []map[string]any) []*model.Entity {
	entities := make([]*model.Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, s.Hydrate(row))
	}
	return entities
}
