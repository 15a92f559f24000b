// Package query implements a fluent SQL builder for single-table statements.
// A builder accumulates predicates, ordering, and pagination, then a terminal
// operation compiles one parameterized statement and runs it against an
// Executor. Builders are single-use: construct a fresh one per chain.
//
// The builder performs no value casting; rows come back with the driver's
// native typing and the model package applies casts after hydration.
package query

import (
	"context"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Executor runs compiled statements. Both the SQLite store and its
// transaction wrapper satisfy this interface.
type Executor interface {
	// Select runs a row-returning statement and returns column-keyed maps.
	Select(ctx context.Context, query string, args []any) ([]map[string]any, error)
	// Exec runs a non-returning statement and reports the last insert id
	// and the number of affected rows.
	Exec(ctx context.Context, query string, args []any) (lastID int64, affected int64, err error)
}

// operators is the allowlist for where clauses.
var operators = map[string]bool{
	"=": true, "!=": true, "<>": true,
	">": true, ">=": true, "<": true, "<=": true,
	"LIKE": true,
}

type whereClause struct {
	column   string
	operator string
	value    any
	// noValue marks IS NULL / IS NOT NULL clauses, which bind nothing.
	noValue bool
}

type orderClause struct {
	column    string
	direction string
}

// Builder accumulates one statement for one table. Chain methods return the
// receiver; misuse during the chain (unknown operator, bad direction) is
// recorded and surfaces from the terminal operation.
type Builder struct {
	exec      Executor
	table     string
	columns   []string
	wheres    []whereClause
	orders    []orderClause
	limit     int
	offset    int
	hasLimit  bool
	hasOffset bool
	consumed  bool
	err       error
}

// New creates a builder for table backed by exec.
func New(exec Executor, table string) *Builder {
	return &Builder{exec: exec, table: table}
}

// Select restricts the selected columns. Without it, all columns are
// selected.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

// Where adds an AND predicate. With one argument the operator defaults to
// "="; with two the first is the operator. Predicates compile in
// registration order.
func (b *Builder) Where(column string, args ...any) *Builder {
	switch len(args) {
	case 1:
		b.wheres = append(b.wheres, whereClause{column: column, operator: "=", value: args[0]})
	case 2:
		op, ok := args[0].(string)
		op = strings.ToUpper(strings.TrimSpace(op))
		if !ok || !operators[op] {
			b.fail(types.ErrInvalidOperator)
			return b
		}
		b.wheres = append(b.wheres, whereClause{column: column, operator: op, value: args[1]})
	default:
		b.fail(types.ErrInvalidOperator)
	}
	return b
}

// WhereNull adds an IS NULL predicate.
func (b *Builder) WhereNull(column string) *Builder {
	b.wheres = append(b.wheres, whereClause{column: column, operator: "IS NULL", noValue: true})
	return b
}

// WhereNotNull adds an IS NOT NULL predicate.
func (b *Builder) WhereNotNull(column string) *Builder {
	b.wheres = append(b.wheres, whereClause{column: column, operator: "IS NOT NULL", noValue: true})
	return b
}

// OrderBy appends an ordering. Direction is "asc" or "desc",
// case-insensitive; empty means ascending.
func (b *Builder) OrderBy(column, direction string) *Builder {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	switch dir {
	case "":
		dir = "ASC"
	case "ASC", "DESC":
	default:
		b.fail(types.ErrInvalidDirection)
		return b
	}
	b.orders = append(b.orders, orderClause{column: column, direction: dir})
	return b
}

// Limit caps the number of returned rows. It applies only when set; there
// is no implicit page size.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	b.hasLimit = true
	return b
}

// Offset skips n rows. Applies only when set.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	b.hasOffset = true
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// take validates the accumulated chain and marks the builder consumed.
// Every terminal operation calls it exactly once.
func (b *Builder) take() error {
	if b.err != nil {
		return b.err
	}
	if b.consumed {
		return types.ErrBuilderConsumed
	}
	if b.table == "" {
		return types.ErrNoTable
	}
	if b.exec == nil {
		return types.ErrNoStore
	}
	b.consumed = true
	return nil
}
