package persist

import (
	"context"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/larder/pkg/model"
	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/rest"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Save persists the entity: create when it does not yet exist, update
// otherwise. The remote store is always attempted before the local one, and
// success is an inclusive or — a single-store environment is fully
// supported, and a partial dual-store failure still counts as saved. There
// is no atomicity across the two stores.
//
// Lifecycle: saving and creating/updating fire before any I/O; created/
// updated and saved fire only after success, which also marks the entity
// existing and resyncs its dirty-tracking snapshot.
func (c *Coordinator) Save(ctx context.Context, e *model.Entity) bool {
	s := e.Schema()
	creating := !e.Exists

	c.fire(types.EventSaving, e)
	if creating {
		c.fire(types.EventCreating, e)
	} else {
		c.fire(types.EventUpdating, e)
	}
	e.Touch(c.now())

	if creating && s.UUIDKeys && keyUnset(e.Key()) {
		e.SetKey(uuid.Must(uuid.NewV7()).String())
	}

	data := e.RawAttributes()

	var remoteOK, localOK bool
	if c.useRemote(s) {
		remoteOK = c.saveRemote(ctx, e, creating, data)
		// A remote create may have assigned the key after data was
		// serialized; carry it into the local write.
		if creating && !keyUnset(e.Key()) {
			data[s.Key()] = e.Key()
		}
	}
	if c.useLocal(s) {
		localOK = c.saveLocal(ctx, e, creating, data)
	}

	if !remoteOK && !localOK {
		return false
	}

	e.Exists = true
	e.RecentlyCreated = creating
	e.SyncOriginal()
	if creating {
		c.fire(types.EventCreated, e)
	} else {
		c.fire(types.EventUpdated, e)
	}
	c.fire(types.EventSaved, e)
	return true
}

func (c *Coordinator) saveRemote(ctx context.Context, e *model.Entity, creating bool, data map[string]any) bool {
	s := e.Schema()
	var resp *rest.Response
	var err error
	if creating {
		resp, err = c.remote.Store(ctx, s.Resource, data)
	} else {
		resp, err = c.remote.Update(ctx, s.Resource, e.Key(), data)
	}
	if err != nil || !resp.OK() {
		c.log.Debug().Err(err).Str("resource", s.Resource).Msg("remote save failed")
		return false
	}
	if creating {
		if body, err := resp.Entity(); err == nil {
			if id, ok := body[s.Key()]; ok && !keyUnset(id) {
				e.SetKey(id)
			}
		}
	}
	return true
}

func (c *Coordinator) saveLocal(ctx context.Context, e *model.Entity, creating bool, data map[string]any) bool {
	s := e.Schema()
	cols, err := c.local.Columns(ctx, s.Table)
	if err != nil {
		c.log.Debug().Err(err).Str("table", s.Table).Msg("local save failed")
		return false
	}
	filtered := filterColumns(data, cols)

	if creating {
		if len(filtered) == 0 {
			return false
		}
		lastID, err := query.New(c.local, s.Table).Insert(ctx, filtered)
		if err != nil {
			c.log.Debug().Err(err).Str("table", s.Table).Msg("local insert failed")
			return false
		}
		if keyUnset(e.Key()) && lastID > 0 {
			e.SetKey(lastID)
		}
		return true
	}

	delete(filtered, s.Key())
	if len(filtered) == 0 {
		return true
	}
	if _, err := query.New(c.local, s.Table).Where(s.Key(), e.Key()).Update(ctx, filtered); err != nil {
		c.log.Debug().Err(err).Str("table", s.Table).Msg("local update failed")
		return false
	}
	return true
}

// Delete removes the entity from every participating store. A store-level
// failure does not prevent the other store from being attempted; success is
// either store succeeding, which clears Exists and fires the deleted event.
// Deleting an unsaved entity is a no-op returning false.
func (c *Coordinator) Delete(ctx context.Context, e *model.Entity) bool {
	if !e.Exists || keyUnset(e.Key()) {
		return false
	}
	s := e.Schema()

	var remoteOK, localOK bool
	if c.useRemote(s) {
		resp, err := c.remote.Destroy(ctx, s.Resource, e.Key())
		if err != nil || !resp.OK() {
			c.log.Debug().Err(err).Str("resource", s.Resource).Msg("remote destroy failed")
		} else {
			remoteOK = true
		}
	}
	if c.useLocal(s) {
		if _, err := query.New(c.local, s.Table).Where(s.Key(), e.Key()).Delete(ctx); err != nil {
			c.log.Debug().Err(err).Str("table", s.Table).Msg("local delete failed")
		} else {
			localOK = true
		}
	}

	if !remoteOK && !localOK {
		return false
	}
	e.Exists = false
	c.fire(types.EventDeleted, e)
	return true
}
