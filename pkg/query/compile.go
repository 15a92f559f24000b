package query

import (
	"fmt"
	"sort"
	"strings"
)

// compileSelect assembles the SELECT statement with the accumulated WHERE,
// ORDER BY, LIMIT, and OFFSET pieces. All bound values use ? placeholders.
func (b *Builder) compileSelect() (string, []any) {
	cols := "*"
	if len(b.columns) > 0 {
		cols = strings.Join(b.columns, ", ")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, b.table)
	args := b.writeWhere(&sb)

	if len(b.orders) > 0 {
		parts := make([]string, len(b.orders))
		for i, o := range b.orders {
			parts[i] = o.column + " " + o.direction
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if b.hasLimit {
		fmt.Fprintf(&sb, " LIMIT %d", b.limit)
	}
	if b.hasOffset {
		fmt.Fprintf(&sb, " OFFSET %d", b.offset)
	}
	return sb.String(), args
}

// compileCount assembles SELECT COUNT(*) with the same WHERE set.
func (b *Builder) compileCount() (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT COUNT(*) AS aggregate FROM %s", b.table)
	args := b.writeWhere(&sb)
	return sb.String(), args
}

// compileInsert assembles an INSERT for one row. Columns compile in sorted
// order so statements are deterministic across map iterations.
func compileInsert(table string, row map[string]any) (string, []any) {
	cols := sortedColumns(row)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		args[i] = row[col]
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return sql, args
}

// compileUpdate assembles an UPDATE with the accumulated WHERE set. SET
// columns compile in sorted order; their bindings precede the WHERE
// bindings.
func (b *Builder) compileUpdate(row map[string]any) (string, []any) {
	cols := sortedColumns(row)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(b.wheres))
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, row[col])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "UPDATE %s SET %s", b.table, strings.Join(sets, ", "))
	args = append(args, b.writeWhere(&sb)...)
	return sb.String(), args
}

// compileDelete assembles a DELETE with the accumulated WHERE set.
func (b *Builder) compileDelete() (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DELETE FROM %s", b.table)
	args := b.writeWhere(&sb)
	return sb.String(), args
}

// writeWhere appends the WHERE clause in registration order and returns the
// bound values. Null predicates bind nothing.
func (b *Builder) writeWhere(sb *strings.Builder) []any {
	if len(b.wheres) == 0 {
		return nil
	}
	parts := make([]string, len(b.wheres))
	var args []any
	for i, w := range b.wheres {
		if w.noValue {
			parts[i] = w.column + " " + w.operator
			continue
		}
		parts[i] = w.column + " " + w.operator + " ?"
		args = append(args, w.value)
	}
	sb.WriteString(" WHERE " + strings.Join(parts, " AND "))
	return args
}

func sortedColumns(row map[string]any) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
