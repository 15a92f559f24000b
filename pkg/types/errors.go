package types

import "errors"

// Entity and cast errors.
var (
	// ErrDecode reports a malformed encoded value in a cast attribute,
	// such as invalid JSON in a json-cast field. It is never swallowed;
	// callers of Entity.Get see it directly.
	ErrDecode = errors.New("malformed encoded value")
)

// Store operation errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreClosed      = errors.New("store is closed")
)

// Query builder errors. Chain methods defer these; the terminal operation
// returns the first one recorded.
var (
	ErrNoTable          = errors.New("query has no table")
	ErrInvalidOperator  = errors.New("invalid where operator")
	ErrEmptyRow         = errors.New("row has no columns")
	ErrBuilderConsumed  = errors.New("query builder already executed")
	ErrInvalidDirection = errors.New("invalid order direction")
)
