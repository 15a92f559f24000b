// Package persist implements the coordinator that reconciles entity state
// between the local SQLite store and the remote REST resource. Per-entity
// schema flags select which stores participate; per-store failures never
// cross the dual-store boundary. Operations report absence and failure
// through nil and false returns, never through errors — richer diagnostics
// flow through the attached logger and lifecycle events.
package persist

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/larder/pkg/model"
	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/rest"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// LocalStore is the statement surface the coordinator needs from the local
// store. Rows are column-keyed maps with driver-native typing.
type LocalStore interface {
	Select(ctx context.Context, query string, args []any) ([]map[string]any, error)
	Exec(ctx context.Context, query string, args []any) (lastID int64, affected int64, err error)
	Columns(ctx context.Context, table string) ([]string, error)
}

// RemoteResource maps CRUD verbs to REST calls keyed by resource name.
type RemoteResource interface {
	Index(ctx context.Context, resource string) (*rest.Response, error)
	Show(ctx context.Context, resource string, id any) (*rest.Response, error)
	Store(ctx context.Context, resource string, data map[string]any) (*rest.Response, error)
	Update(ctx context.Context, resource string, id any, data map[string]any) (*rest.Response, error)
	Destroy(ctx context.Context, resource string, id any) (*rest.Response, error)
}

// Coordinator orchestrates find/list/save/delete/refresh across the two
// stores. Both stores are optional; a schema flag with no matching store
// degrades to a no-op for that side. The coordinator holds no locks and
// opens no transactions; concurrent operations on one entity instance are
// the caller's responsibility.
type Coordinator struct {
	local  LocalStore
	remote RemoteResource
	events types.Dispatcher
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDispatcher attaches a lifecycle event sink.
func WithDispatcher(d types.Dispatcher) Option {
	return func(c *Coordinator) { c.events = d }
}

// WithLogger attaches a logger for swallowed store failures.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New creates a coordinator over the given stores. Either store may be nil.
func New(local LocalStore, remote RemoteResource, opts ...Option) *Coordinator {
	c := &Coordinator{
		local:  local,
		remote: remote,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns a local-backed builder for the schema's table. Terminal
// operations fail with ErrNoStore when no local store is attached.
func (c *Coordinator) Query(s *model.Schema) *query.Builder {
	return query.New(c.local, s.Table)
}

// fire dispatches a lifecycle event; an absent sink is a no-op.
func (c *Coordinator) fire(event types.Event, e *model.Entity) {
	if c.events != nil {
		c.events.Fire(event, e)
	}
}

// useLocal reports whether the local store participates for this schema.
func (c *Coordinator) useLocal(s *model.Schema) bool {
	return s.UseLocal && c.local != nil
}

// useRemote reports whether the remote store participates for this schema.
func (c *Coordinator) useRemote(s *model.Schema) bool {
	return s.UseRemote && c.remote != nil
}

// filterColumns drops every key of data that is not a real column, so
// remote-originated payloads with joined or nested fields persist locally
// without schema errors.
func filterColumns(data map[string]any, columns []string) map[string]any {
	allowed := make(map[string]bool, len(columns))
	for _, col := range columns {
		allowed[col] = true
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}

// keyUnset reports whether a primary key value is still absent.
func keyUnset(v any) bool {
	return v == nil || v == ""
}
