package persist

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/model"
	"github.com/mesh-intelligence/larder/pkg/rest"
	"github.com/mesh-intelligence/larder/pkg/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// fakeRemote plays back canned responses per verb and records the call order.
type fakeRemote struct {
	calls    []string
	statuses map[string]int
	bodies   map[string]string
	errs     map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		statuses: make(map[string]int),
		bodies:   make(map[string]string),
		errs:     make(map[string]error),
	}
}

func (f *fakeRemote) respond(verb string) (*rest.Response, error) {
	f.calls = append(f.calls, verb)
	if err := f.errs[verb]; err != nil {
		return nil, err
	}
	status := f.statuses[verb]
	if status == 0 {
		status = http.StatusOK
	}
	return &rest.Response{Status: status, Body: []byte(f.bodies[verb])}, nil
}

func (f *fakeRemote) Index(context.Context, string) (*rest.Response, error) {
	return f.respond("index")
}

func (f *fakeRemote) Show(context.Context, string, any) (*rest.Response, error) {
	return f.respond("show")
}

func (f *fakeRemote) Store(context.Context, string, map[string]any) (*rest.Response, error) {
	return f.respond("store")
}

func (f *fakeRemote) Update(context.Context, string, any, map[string]any) (*rest.Response, error) {
	return f.respond("update")
}

func (f *fakeRemote) Destroy(context.Context, string, any) (*rest.Response, error) {
	return f.respond("destroy")
}

// recorder collects fired lifecycle events in order.
type recorder struct {
	events []types.Event
}

func (r *recorder) Fire(event types.Event, _ any) {
	r.events = append(r.events, event)
}

func newLocalStore(t *testing.T, ddl string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, _, err = store.Exec(context.Background(), ddl, nil)
	require.NoError(t, err)
	return store
}

const usersDDL = `CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	age INTEGER,
	created_at TEXT,
	updated_at TEXT
)`

func localSchema() *model.Schema {
	return &model.Schema{
		Table:    "users",
		Resource: "users",
		UseLocal: true,
	}
}

func dualSchema() *model.Schema {
	s := localSchema()
	s.UseRemote = true
	return s
}

func TestSaveLocalCreateAssignsKey(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	s := localSchema()

	e := s.New()
	e.Set("name", "Ada")
	e.Set("age", 36)

	require.True(t, c.Save(context.Background(), e))
	assert.Equal(t, int64(1), e.Key())
	assert.True(t, e.Exists)
	assert.True(t, e.RecentlyCreated)
	assert.False(t, e.IsDirty())

	rows, err := store.Select(context.Background(), "SELECT * FROM users", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0]["name"])
}

func TestSaveLocalUpdate(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	s := localSchema()
	ctx := context.Background()

	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(ctx, e))

	e.Set("name", "Grace")
	require.True(t, c.Save(ctx, e))
	assert.False(t, e.RecentlyCreated)

	rows, err := store.Select(ctx, "SELECT name FROM users WHERE id = ?", []any{e.Key()})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Grace", rows[0]["name"])
}

func TestSaveTimestamps(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	s := localSchema()
	s.Timestamps = true

	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(context.Background(), e))

	created, err := e.Get("created_at")
	require.NoError(t, err)
	updated, err := e.Get("updated_at")
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	_, err = time.Parse(model.TimeFormat, created.(string))
	assert.NoError(t, err)
}

func TestSaveUUIDKeys(t *testing.T) {
	store := newLocalStore(t, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT
	)`)
	c := New(store, nil)
	s := localSchema()
	s.UUIDKeys = true

	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(context.Background(), e))

	key, ok := e.Key().(string)
	require.True(t, ok)
	assert.Len(t, key, 36)

	rows, err := store.Select(context.Background(), "SELECT id FROM users", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, key, rows[0]["id"])
}

func TestSaveRemoteFirstCarriesAssignedKey(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	remote.statuses["store"] = http.StatusCreated
	remote.bodies["store"] = `{"data":{"id":42,"name":"Ada"}}`
	c := New(store, remote)
	s := dualSchema()

	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(context.Background(), e))

	assert.Equal(t, []string{"store"}, remote.calls)
	assert.Equal(t, float64(42), e.Key())

	rows, err := store.Select(context.Background(), "SELECT id, name FROM users", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0]["id"])
}

func TestSaveRemoteFailureLocalSuccess(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	remote.statuses["store"] = http.StatusInternalServerError
	c := New(store, remote)

	e := dualSchema().New()
	e.Set("name", "Ada")
	assert.True(t, c.Save(context.Background(), e))
	assert.True(t, e.Exists)
}

func TestSaveBothStoresFail(t *testing.T) {
	// No users table, so the local write fails too.
	store := newLocalStore(t, "CREATE TABLE other (id INTEGER)")
	remote := newFakeRemote()
	remote.statuses["store"] = http.StatusInternalServerError
	c := New(store, remote)

	e := dualSchema().New()
	e.Set("name", "Ada")
	assert.False(t, c.Save(context.Background(), e))
	assert.False(t, e.Exists)
	assert.False(t, e.RecentlyCreated)
}

func TestSaveEvents(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	sink := &recorder{}
	c := New(store, nil, WithDispatcher(sink))
	s := localSchema()
	ctx := context.Background()

	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(ctx, e))
	assert.Equal(t, []types.Event{
		types.EventSaving, types.EventCreating,
		types.EventCreated, types.EventSaved,
	}, sink.events)

	sink.events = nil
	e.Set("name", "Grace")
	require.True(t, c.Save(ctx, e))
	assert.Equal(t, []types.Event{
		types.EventSaving, types.EventUpdating,
		types.EventUpdated, types.EventSaved,
	}, sink.events)
}

func TestSaveFailureFiresNoCompletionEvents(t *testing.T) {
	store := newLocalStore(t, "CREATE TABLE other (id INTEGER)")
	sink := &recorder{}
	c := New(store, nil, WithDispatcher(sink))

	e := localSchema().New()
	e.Set("name", "Ada")
	require.False(t, c.Save(context.Background(), e))
	assert.Equal(t, []types.Event{types.EventSaving, types.EventCreating}, sink.events)
}

func TestSaveDropsNonColumns(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)

	e := localSchema().New()
	e.Set("name", "Ada")
	e.Set("nickname", "countess")
	require.True(t, c.Save(context.Background(), e))

	rows, err := store.Select(context.Background(), "SELECT * FROM users", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotContains(t, rows[0], "nickname")
}

func TestFindLocalHitSkipsRemote(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	c := New(store, remote)
	s := dualSchema()
	ctx := context.Background()

	_, _, err := store.Exec(ctx,
		"INSERT INTO users (id, name) VALUES (?, ?)", []any{1, "Ada"})
	require.NoError(t, err)

	e := c.Find(ctx, s, 1)
	require.NotNil(t, e)
	assert.True(t, e.Exists)
	name, err := e.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
	assert.Empty(t, remote.calls)
}

func TestFindRemoteFallbackSyncsLocal(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	remote.bodies["show"] = `{"data":{"id":7,"name":"Grace","affiliation":"navy"}}`
	c := New(store, remote)
	s := dualSchema()
	ctx := context.Background()

	e := c.Find(ctx, s, 7)
	require.NotNil(t, e)
	name, err := e.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Grace", name)
	assert.Equal(t, []string{"show"}, remote.calls)

	// The remote row is written back, minus the non-column field.
	rows, err := store.Select(ctx, "SELECT * FROM users WHERE id = ?", []any{7})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Grace", rows[0]["name"])
	assert.NotContains(t, rows[0], "affiliation")
}

func TestFindLocalErrorFallsBackToRemote(t *testing.T) {
	// No users table: the local query itself errors rather than missing.
	store := newLocalStore(t, "CREATE TABLE other (id INTEGER)")
	remote := newFakeRemote()
	remote.bodies["show"] = `{"data":{"id":7,"name":"Grace"}}`
	c := New(store, remote)
	ctx := context.Background()

	e := c.Find(ctx, dualSchema(), 7)
	require.NotNil(t, e)
	name, err := e.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Grace", name)
	assert.Equal(t, []string{"show"}, remote.calls)
}

func TestAllLocalErrorFallsBackToRemote(t *testing.T) {
	store := newLocalStore(t, "CREATE TABLE other (id INTEGER)")
	remote := newFakeRemote()
	remote.bodies["index"] = `{"data":[{"id":1,"name":"Ada"}]}`
	c := New(store, remote)

	entities := c.All(context.Background(), dualSchema())
	require.Len(t, entities, 1)
	assert.Equal(t, []string{"index"}, remote.calls)
	name, err := entities[0].Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
}

func TestFindAbsent(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	remote.statuses["show"] = http.StatusNotFound
	c := New(store, remote)

	assert.Nil(t, c.Find(context.Background(), dualSchema(), 99))
}

func TestFindLocalOnlyAbsent(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	assert.Nil(t, c.Find(context.Background(), localSchema(), 99))
}

func TestAllLocalReadWinsEvenEmpty(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	remote.bodies["index"] = `[{"id":1,"name":"Ada"}]`
	c := New(store, remote)

	entities := c.All(context.Background(), dualSchema())
	assert.Empty(t, entities)
	assert.Empty(t, remote.calls, "an empty local result must not trigger the remote index")
}

func TestAllLocal(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	ctx := context.Background()

	for _, name := range []string{"Ada", "Grace"} {
		_, _, err := store.Exec(ctx,
			"INSERT INTO users (name) VALUES (?)", []any{name})
		require.NoError(t, err)
	}

	entities := c.All(ctx, localSchema())
	require.Len(t, entities, 2)
	assert.True(t, entities[0].Exists)
}

func TestAllRemoteWhenLocalDisabled(t *testing.T) {
	remote := newFakeRemote()
	remote.bodies["index"] = `{"data":[{"id":1,"name":"Ada"},{"id":2,"name":"Grace"}]}`
	c := New(nil, remote)
	s := &model.Schema{Resource: "users", UseRemote: true}

	entities := c.All(context.Background(), s)
	require.Len(t, entities, 2)
	assert.Equal(t, []string{"index"}, remote.calls)
}

func TestRefresh(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	s := localSchema()
	ctx := context.Background()

	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(ctx, e))

	_, _, err := store.Exec(ctx,
		"UPDATE users SET name = ? WHERE id = ?", []any{"Grace", e.Key()})
	require.NoError(t, err)

	e.Set("name", "stale edit")
	require.True(t, c.Refresh(ctx, e))

	name, err := e.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Grace", name)
	assert.False(t, e.IsDirty())
}

func TestRefreshUnsaved(t *testing.T) {
	c := New(nil, nil)
	assert.False(t, c.Refresh(context.Background(), localSchema().New()))
}

func TestDelete(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	c := New(store, remote)
	s := dualSchema()
	ctx := context.Background()

	remote.statuses["store"] = http.StatusCreated
	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(ctx, e))

	sink := &recorder{}
	c.events = sink
	require.True(t, c.Delete(ctx, e))
	assert.False(t, e.Exists)
	assert.Contains(t, remote.calls, "destroy")
	assert.Equal(t, []types.Event{types.EventDeleted}, sink.events)

	rows, err := store.Select(ctx, "SELECT * FROM users", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteUnsaved(t *testing.T) {
	c := New(nil, nil)
	e := localSchema().New()
	assert.False(t, c.Delete(context.Background(), e))
}

func TestDeleteRemoteFailureLocalSuccess(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	remote := newFakeRemote()
	c := New(store, remote)
	s := dualSchema()
	ctx := context.Background()

	remote.statuses["store"] = http.StatusCreated
	e := s.New()
	e.Set("name", "Ada")
	require.True(t, c.Save(ctx, e))

	remote.statuses["destroy"] = http.StatusInternalServerError
	assert.True(t, c.Delete(ctx, e))
	assert.False(t, e.Exists)
}

func TestQueryBuilder(t *testing.T) {
	store := newLocalStore(t, usersDDL)
	c := New(store, nil)
	ctx := context.Background()

	_, _, err := store.Exec(ctx,
		"INSERT INTO users (name, age) VALUES (?, ?)", []any{"Ada", 36})
	require.NoError(t, err)

	n, err := c.Query(localSchema()).Where("age", ">=", 18).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
