package types

// Event names a point in the entity persistence lifecycle. The coordinator
// fires events through a Dispatcher; whether anything listens is not its
// concern.
type Event string

// Lifecycle events fired by the persistence coordinator, in firing order
// around a save: Saving, then Creating or Updating, then after a successful
// write Created or Updated, then Saved. Deleted fires after a successful
// delete.
const (
	EventSaving   Event = "saving"
	EventCreating Event = "creating"
	EventCreated  Event = "created"
	EventUpdating Event = "updating"
	EventUpdated  Event = "updated"
	EventSaved    Event = "saved"
	EventDeleted  Event = "deleted"
)

// Dispatcher receives lifecycle events. Implementations must not block;
// the coordinator calls Fire synchronously between store operations.
type Dispatcher interface {
	Fire(event Event, entity any)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(event Event, entity any)

// Fire calls f.
func (f DispatcherFunc) Fire(event Event, entity any) { f(event, entity) }
