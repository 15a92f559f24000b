package query

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Get executes the SELECT and returns every matching row.
func (b *Builder) Get(ctx context.Context) ([]map[string]any, error) {
	if err := b.take(); err != nil {
		return nil, err
	}
	sql, args := b.compileSelect()
	return b.exec.Select(ctx, sql, args)
}

// First executes the SELECT with an implicit LIMIT 1 and returns the first
// row, or nil when nothing matches.
func (b *Builder) First(ctx context.Context) (map[string]any, error) {
	if err := b.take(); err != nil {
		return nil, err
	}
	if !b.hasLimit {
		b.limit = 1
		b.hasLimit = true
	}
	sql, args := b.compileSelect()
	rows, err := b.exec.Select(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Value returns a single column of the first matching row, or nil.
func (b *Builder) Value(ctx context.Context, column string) (any, error) {
	row, err := b.First(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return row[column], nil
}

// Pluck projects one column of every matching row into a flat list.
func (b *Builder) Pluck(ctx context.Context, column string) ([]any, error) {
	rows, err := b.Get(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[column])
	}
	return values, nil
}

// Count returns the number of matching rows.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if err := b.take(); err != nil {
		return 0, err
	}
	sql, args := b.compileCount()
	rows, err := b.exec.Select(ctx, sql, args)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["aggregate"]), nil
}

// Exists reports whether any row matches.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	n, err := b.Count(ctx)
	return n > 0, err
}

// Insert writes one row and returns the generated row identifier.
func (b *Builder) Insert(ctx context.Context, row map[string]any) (int64, error) {
	if err := b.take(); err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, types.ErrEmptyRow
	}
	sql, args := compileInsert(b.table, row)
	lastID, _, err := b.exec.Exec(ctx, sql, args)
	return lastID, err
}

// InsertAll writes rows sequentially, each committed independently. It is
// not atomic as a batch; callers needing atomicity run it inside a store
// transaction.
func (b *Builder) InsertAll(ctx context.Context, rows []map[string]any) error {
	if err := b.take(); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("row %d: %w", i, types.ErrEmptyRow)
		}
		sql, args := compileInsert(b.table, row)
		if _, _, err := b.exec.Exec(ctx, sql, args); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Update writes the row values to every matching row and returns the
// affected count.
func (b *Builder) Update(ctx context.Context, row map[string]any) (int64, error) {
	if err := b.take(); err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, types.ErrEmptyRow
	}
	sql, args := b.compileUpdate(row)
	_, affected, err := b.exec.Exec(ctx, sql, args)
	return affected, err
}

// Delete removes every matching row and returns the affected count.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	if err := b.take(); err != nil {
		return 0, err
	}
	sql, args := b.compileDelete()
	_, affected, err := b.exec.Exec(ctx, sql, args)
	return affected, err
}

// Truncate removes every row in the table, ignoring accumulated predicates.
func (b *Builder) Truncate(ctx context.Context) error {
	if err := b.take(); err != nil {
		return err
	}
	_, _, err := b.exec.Exec(ctx, "DELETE FROM "+b.table, nil)
	return err
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
